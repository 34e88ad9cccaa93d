// Package idempotency lets one instance claim a key in Redis before running
// an operation, so jobs and consumers run at most once per key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the value stored under a claimed key. StateNone means the caller
// now owns the key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

// duplicateErrs maps a state held by someone else to the error Exec returns.
var duplicateErrs = map[State]error{
	StateInProgress: ErrAlreadyInProgress,
	StateCompleted:  ErrAlreadyCompleted,
	StateFailed:     ErrAlreadyFailed,
}

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// claimScript returns the current value, or sets ARGV[1] with a PX of
// ARGV[2] and returns "" when the key is free.
var claimScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then return v end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return ''
`)

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// StateTracker is the Redis implementation. Keys are stored under
// "idempotency:".
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration     time.Duration
	stateTTL         time.Duration
	releaseOnFailure bool
}

// WithLockDuration bounds how long an in-progress claim survives a crash.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed or failed outcome is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithReleaseOnFailure frees the key when fn fails instead of recording
// StateFailed, so the next attempt may run.
func WithReleaseOnFailure() Option {
	return func(o *execOptions) { o.releaseOnFailure = true }
}

// IsDuplicate reports whether err means another caller holds the key.
func IsDuplicate(err error) bool {
	for _, dup := range duplicateErrs {
		if errors.Is(err, dup) {
			return true
		}
	}
	return false
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	held, err := claimScript.Run(ctx, s.client, []string{s.prefix + key},
		string(StateInProgress), lockDuration.Milliseconds()).Text()
	if err != nil {
		return StateError, err
	}
	if held == "" {
		return StateNone, nil
	}

	state := State(held)
	if _, ok := duplicateErrs[state]; !ok {
		return StateError, fmt.Errorf("%w: %q", ErrInvalidState, held)
	}
	return state, nil
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.mark(ctx, key, StateCompleted, ttl)
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.mark(ctx, key, StateFailed, ttl)
}

func (s *StateTracker) mark(ctx context.Context, key string, state State, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, string(state), ttl).Err()
}

// Exec claims key, runs fn and records the outcome. When the key is already
// held it returns the matching ErrAlready* error without running fn.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	o.lockDuration = cmpOr(o.lockDuration, defaultLockDuration)
	o.stateTTL = cmpOr(o.stateTTL, defaultStateTTL)

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if dup, ok := duplicateErrs[state]; ok {
		return dup
	}

	if err := fn(ctx); err != nil {
		var recordErr error
		if o.releaseOnFailure {
			recordErr = releaseScript.Run(ctx, s.client, []string{s.prefix + key}, string(StateInProgress)).Err()
		} else {
			recordErr = s.MarkFailed(ctx, key, o.stateTTL)
		}
		return errors.Join(err, recordErr)
	}

	return s.MarkCompleted(ctx, key, o.stateTTL)
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
