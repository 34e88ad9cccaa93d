package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/cache"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/idempotency"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateGoal(ctx context.Context, g entity.Goal) error
	GetGoal(ctx context.Context, id, userID int64) (*entity.Goal, error)
	ListGoals(ctx context.Context, f entity.GoalFilter) ([]entity.Goal, int64, error)
	UpdateGoal(ctx context.Context, g entity.Goal) error
	DeleteGoal(ctx context.Context, id, userID int64) error

	AchieveGoal(ctx context.Context, g entity.Goal, prevLastAchievedOn *time.Time, a entity.Achievement) error
	ListAchievements(ctx context.Context, goalID int64, from, to time.Time) ([]entity.Achievement, error)
	CountAchievements(ctx context.Context, goalID int64, from, to time.Time) (int, error)

	ListStreakingGoals(ctx context.Context, afterID int64, limit int32) ([]entity.Goal, error)
	ResetStreaks(ctx context.Context, goals []entity.Goal) (int64, error)
}

type Usecase struct {
	repoDB    repoDB
	idemp     idempotency.Idempotency
	cache     cache.Cache
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Idempotency idempotency.Idempotency
	Cache       cache.Cache
	Validator   validator.Validator
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		idemp:     dep.Idempotency,
		cache:     dep.Cache,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("goal.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// today is the current calendar day in the clock's zone.
func (s *Usecase) today() time.Time {
	return entity.Day(s.clock.Now())
}

func (s *Usecase) loadGoal(ctx context.Context, id, userID int64) (*entity.Goal, error) {
	g, err := s.repoDB.GetGoal(ctx, id, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "goal not found", "goal_id", id, "user_id", userID)
		return nil, goerror.NewBusiness("Goal not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get goal", "goal_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return g, nil
}
