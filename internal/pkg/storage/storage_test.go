package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestMemory_Lifecycle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := NewMemory("attachments")

	// Act
	info, err := s.Put(ctx, "notes/1/a.txt", strings.NewReader("hello"), PutOptions{Size: 5, ContentType: "text/plain"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int64(5), info.Size)
	assert.NotEmpty(t, info.ETag)

	rc, got, err := s.Get(ctx, "notes/1/a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", got.ContentType)

	u, err := s.PresignGet(ctx, "notes/1/a.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "memory://attachments/notes/1/a.txt?expires="))

	require.NoError(t, s.Delete(ctx, "notes/1/a.txt"))
	_, err = s.Stat(ctx, "notes/1/a.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = s.PresignGet(ctx, "notes/1/a.txt", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemory_List(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := NewMemory("attachments")
	for _, k := range []string{"notes/2/b", "notes/1/b", "notes/1/a", "other/x"} {
		_, err := s.Put(ctx, k, strings.NewReader(k), PutOptions{Size: -1})
		require.NoError(t, err)
	}

	// Act
	all, err := s.List(ctx, "notes/1/", 0)
	require.NoError(t, err)
	limited, err := s.List(ctx, "notes/", 2)
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 2)
	assert.Equal(t, "notes/1/a", all[0].Key)
	assert.Equal(t, "notes/1/b", all[1].Key)
	assert.Len(t, limited, 2)
}

func TestNewFromDriver(t *testing.T) {
	s, err := NewFromDriver(context.Background(), "memory", FactoryOptions{Bucket: "b"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = NewFromDriver(context.Background(), "azure", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	g, err := NewFromDriver(context.Background(), " GCS ", FactoryOptions{
		Bucket: "b",
		GCS:    GCSOptions{ClientOptions: []option.ClientOption{option.WithoutAuthentication()}},
	})
	require.NoError(t, err)
	assert.IsType(t, &GCS{}, g)
	require.NoError(t, g.Close())
}
