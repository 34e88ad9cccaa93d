package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateEvent(ctx context.Context, e entity.Event) error
	GetEvent(ctx context.Context, id, userID int64) (*entity.Event, error)
	ListEvents(ctx context.Context, f entity.EventFilter) ([]entity.Event, error)
	UpdateEvent(ctx context.Context, e entity.Event) error
	DeleteEvent(ctx context.Context, id, userID int64) error
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("calendar.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) location() *time.Location {
	return s.clock.Now().Location()
}

func (s *Usecase) loadEvent(ctx context.Context, id, userID int64) (*entity.Event, error) {
	e, err := s.repoDB.GetEvent(ctx, id, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "event not found", "event_id", id, "user_id", userID)
		return nil, goerror.NewBusiness("Event not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get event", "event_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}
	return e, nil
}
