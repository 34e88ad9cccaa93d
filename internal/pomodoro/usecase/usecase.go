package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateSession(ctx context.Context, s entity.Session) error
	GetSession(ctx context.Context, id, userID int64) (*entity.Session, error)
	GetRunningSession(ctx context.Context, userID int64) (*entity.Session, error)
	FinishSession(ctx context.Context, s entity.Session) error
	ListSessions(ctx context.Context, f entity.SessionFilter) ([]entity.Session, int64, error)
}

type repoMQ interface {
	PublishPomodoroCompleted(ctx context.Context, msg PomodoroCompletedEvent) error
}

type PomodoroCompletedEvent struct {
	SessionID    int64
	UserID       int64
	GoalID       int64
	TodoID       int64
	FocusMinutes int32
	CompletedAt  time.Time
}

type Usecase struct {
	repoDB    repoDB
	repoMQ    repoMQ
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMQ     repoMQ
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMQ:    dep.RepoMQ,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("pomodoro.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// defaultMinutes reads modules.pomodoro.<kind>_minutes, falling back to 25/5/15.
func (s *Usecase) defaultMinutes(kind entity.Kind) int32 {
	if m := s.cfg.GetInt32("modules.pomodoro." + string(kind) + "_minutes"); m > 0 {
		return m
	}
	switch kind {
	case entity.KindShortBreak:
		return 5
	case entity.KindLongBreak:
		return 15
	default:
		return 25
	}
}

func (s *Usecase) loadSession(ctx context.Context, id, userID int64) (*entity.Session, error) {
	ss, err := s.repoDB.GetSession(ctx, id, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pomodoro session not found", "session_id", id, "user_id", userID)
		return nil, goerror.NewBusiness("Session not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "session_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return ss, nil
}
