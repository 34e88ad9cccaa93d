package stacktrace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
main.handler()
	/go/src/app/internal/goal/usecase/achieve.go:42 +0x1d
net/http.HandlerFunc.ServeHTTP()
	/usr/local/go/src/net/http/server.go:2294 +0x29
`)

	assert.Equal(t, []string{"internal/goal/usecase/achieve.go:42"}, InternalPaths(stack))
	assert.Empty(t, InternalPaths([]byte("no frames")))
}

func TestCapture(t *testing.T) {
	// Arrange
	var frames []Frame
	func() {
		defer func() {
			if recover() != nil {
				frames = Capture(0)
			}
		}()
		panic("boom")
	}()

	// Assert
	require.NotEmpty(t, frames)
	assert.True(t, strings.HasPrefix(string(frames[0]), "internal/pkg/stacktrace/stacktrace_test.go:"), frames[0])
}
