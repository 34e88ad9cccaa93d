package idempotency

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

func newTracker(t *testing.T) (*StateTracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestStateTracker_Exec(t *testing.T) {
	t.Run("RunsOnce", func(t *testing.T) {
		// Arrange
		tr, mr := newTracker(t)
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		// Act
		err1 := tr.Exec(context.Background(), "digest:1:2026-01-01", fn, WithStateTTL(time.Hour))
		err2 := tr.Exec(context.Background(), "digest:1:2026-01-01", fn)

		// Assert
		require.NoError(t, err1)
		assert.ErrorIs(t, err2, ErrAlreadyCompleted)
		assert.True(t, IsDuplicate(err2))
		assert.Equal(t, 1, calls)
		val, err := mr.Get("idempotency:digest:1:2026-01-01")
		require.NoError(t, err)
		assert.Equal(t, "completed", val)
		assert.Equal(t, time.Hour, mr.TTL("idempotency:digest:1:2026-01-01"))
	})

	t.Run("InProgress", func(t *testing.T) {
		tr, _ := newTracker(t)
		state, err := tr.Acquire(context.Background(), "k", time.Minute)
		require.NoError(t, err)
		require.Equal(t, StateNone, state)

		err = tr.Exec(context.Background(), "k", func(context.Context) error { return nil })

		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})

	t.Run("FailureIsRemembered", func(t *testing.T) {
		tr, _ := newTracker(t)
		errBoom := errors.New("boom")

		err1 := tr.Exec(context.Background(), "k", func(context.Context) error { return errBoom })
		err2 := tr.Exec(context.Background(), "k", func(context.Context) error { return nil })

		assert.ErrorIs(t, err1, errBoom)
		assert.ErrorIs(t, err2, ErrAlreadyFailed)
	})

	t.Run("ReleaseOnFailureAllowsRetry", func(t *testing.T) {
		tr, mr := newTracker(t)
		errBoom := errors.New("boom")

		err1 := tr.Exec(context.Background(), "k", func(context.Context) error { return errBoom }, WithReleaseOnFailure())
		assert.False(t, mr.Exists("idempotency:k"))
		err2 := tr.Exec(context.Background(), "k", func(context.Context) error { return nil }, WithReleaseOnFailure())

		assert.ErrorIs(t, err1, errBoom)
		assert.NoError(t, err2)
	})

	t.Run("LockExpires", func(t *testing.T) {
		tr, mr := newTracker(t)
		_, err := tr.Acquire(context.Background(), "k", time.Minute)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)
		state, err := tr.Acquire(context.Background(), "k", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, StateNone, state)
	})
	t.Run("UnknownValueIsInvalid", func(t *testing.T) {
		tr, mr := newTracker(t)
		require.NoError(t, mr.Set("idempotency:k", "garbage"))

		state, err := tr.Acquire(context.Background(), "k", time.Minute)

		assert.Equal(t, StateError, state)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("ReleaseKeepsForeignValue", func(t *testing.T) {
		tr, mr := newTracker(t)

		err := tr.Exec(context.Background(), "k", func(context.Context) error {
			require.NoError(t, mr.Set("idempotency:k", "completed"))
			return errors.New("boom")
		}, WithReleaseOnFailure())

		require.Error(t, err)
		val, getErr := mr.Get("idempotency:k")
		require.NoError(t, getErr)
		assert.Equal(t, "completed", val)
	})
}
