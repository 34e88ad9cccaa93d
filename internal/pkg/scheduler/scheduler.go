// Package scheduler runs named cron jobs on the application's goroutine pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shandysiswandi/gofocus/internal/pkg/goroutine"
)

// ErrUnknownJob is returned by RunNow for a name that was never registered.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	fn      JobFunc
	running atomic.Bool
}

// Scheduler triggers jobs on cron specs. A trigger is skipped while the
// previous run of the same job is still in flight.
type Scheduler struct {
	cron    *cron.Cron
	routine *goroutine.Manager
	ctx     context.Context
	cancel  context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a scheduler evaluating specs in loc.
func New(loc *time.Location, routine *goroutine.Manager) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithLogger(slogLogger{})),
		routine: routine,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
}

// Register adds a job. spec uses the standard 5-field format or a descriptor such as "@every 1m".
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}

	j := &job{name: name, fn: fn}
	if _, err := s.cron.AddFunc(spec, func() { s.trigger(j) }); err != nil {
		return fmt.Errorf("scheduler: job %q spec %q: %w", name, spec, err)
	}
	s.jobs[name] = j

	slog.Info("scheduler job registered", "job", name, "spec", spec)

	return nil
}

// RunNow triggers a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	s.trigger(j)
	return nil
}

// Start begins evaluating schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and cancels the context of running jobs.
// It waits for the cron loop until ctx is done. In-flight runs finish on the
// goroutine pool, which the caller drains.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) trigger(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		slog.WarnContext(s.ctx, "scheduler job still running, skipping", "job", j.name)
		return
	}

	scheduled := s.routine.Go(s.ctx, func(ctx context.Context) error {
		defer j.running.Store(false)

		start := time.Now()
		slog.InfoContext(ctx, "scheduler job started", "job", j.name)

		if err := j.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "scheduler job failed", "job", j.name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return nil
		}

		slog.InfoContext(ctx, "scheduler job finished", "job", j.name, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
	if !scheduled {
		j.running.Store(false)
	}
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
