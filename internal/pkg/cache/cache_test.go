package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Streak int     `json:"streak"`
	Rate   float64 `json:"rate"`
}

func newTiered(t *testing.T) (*Tiered, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(Config{Size: 8, L1TTL: time.Minute, Redis: client, Prefix: "t:"}), mr
}

func TestTiered_SetGetDelete(t *testing.T) {
	// Arrange
	c, mr := newTiered(t)
	ctx := context.Background()

	// Act
	require.NoError(t, c.Set(ctx, "goal:1:stats", stats{Streak: 3, Rate: 75.5}, time.Hour))

	// Assert
	var got stats
	found, err := c.Get(ctx, "goal:1:stats", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stats{Streak: 3, Rate: 75.5}, got)
	assert.True(t, mr.Exists("t:goal:1:stats"))
	assert.Equal(t, time.Hour, mr.TTL("t:goal:1:stats"))

	require.NoError(t, c.Delete(ctx, "goal:1:stats"))
	found, err = c.Get(ctx, "goal:1:stats", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("t:goal:1:stats"))
}

func TestTiered_L2HitPopulatesL1(t *testing.T) {
	// Arrange
	c, mr := newTiered(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("t:k", `{"streak":9,"rate":1}`))

	// Act
	var got stats
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	mr.Del("t:k")
	var again stats
	foundAgain, err := c.Get(ctx, "k", &again)

	// Assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, foundAgain)
	assert.Equal(t, 9, again.Streak)
}

func TestTiered_WithoutRedis(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 5, time.Minute))
	var got int
	found, err := c.Get(ctx, "k", &got)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, got)
}

func TestGetOrLoad(t *testing.T) {
	c, _ := newTiered(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (stats, error) {
		calls++
		return stats{Streak: calls}, nil
	}

	first, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Streak)
	assert.Equal(t, 1, second.Streak)
	assert.Equal(t, 1, calls)

	errBoom := errors.New("boom")
	_, err = GetOrLoad(ctx, c, "other", time.Minute, func(context.Context) (stats, error) { return stats{}, errBoom })
	assert.ErrorIs(t, err, errBoom)
}

func TestGetOrLoad_RedisDownFallsBackToLoad(t *testing.T) {
	c, mr := newTiered(t)
	mr.Close()

	got, err := GetOrLoad(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
