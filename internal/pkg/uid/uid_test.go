package uid

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Generate(t *testing.T) {
	// Arrange
	gen, err := NewSnowflakeWithNode(7)
	require.NoError(t, err)

	// Act
	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := gen.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}

		// Assert
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestNewSnowflakeWithNode_OutOfRange(t *testing.T) {
	_, err := NewSnowflakeWithNode(4096)
	assert.Error(t, err)
}

func TestUUID_Generate(t *testing.T) {
	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestToken_Generate(t *testing.T) {
	// Arrange
	gen, err := NewToken()
	require.NoError(t, err)
	issued := time.Date(2026, 5, 14, 6, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return issued }

	// Act
	a := gen.Generate()
	b := gen.Generate()

	// Assert
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a[:12], b[:12])
	assert.Equal(t, fmt.Sprintf("%012x", issued.UnixMilli()), a[:12])
}

func TestToken_GeneratePanicsOnBrokenRand(t *testing.T) {
	gen := &Token{now: time.Now, rand: strings.NewReader("short")}

	assert.Panics(t, func() { gen.Generate() })
}
