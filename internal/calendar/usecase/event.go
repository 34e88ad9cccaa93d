package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
)

type EventInput struct {
	ID                  int64
	Title               string    `validate:"required,max=200"`
	Description         string    `validate:"max=2000"`
	Location            string    `validate:"max=200"`
	StartAt             time.Time `validate:"required"`
	EndAt               time.Time `validate:"required"`
	AllDay              bool
	Color               string `validate:"omitempty,len=7,hexcolor"`
	RemindBeforeMinutes *int32 `validate:"omitempty,min=0,max=10080"`

	// StartIsDate and EndIsDate mark plain YYYY-MM-DD values. Their day is
	// read in the server zone and an all-day end date is inclusive.
	StartIsDate bool
	EndIsDate   bool
}

func (s *Usecase) prepare(in *EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Color = strings.ToLower(strings.TrimSpace(in.Color))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.Color == "" {
		in.Color = entity.DefaultColor
	}
	return nil
}

// atDate moves a plain date to midnight in the server zone.
func (s *Usecase) atDate(t time.Time, isDate bool) time.Time {
	if !isDate || t.IsZero() {
		return t
	}
	return entity.Midnight(t, s.location())
}

func (s *Usecase) normalize(e *entity.Event, endIsDate bool) error {
	norm := e.Normalize
	if endIsDate {
		norm = e.NormalizeDates
	}
	if err := norm(s.location()); err != nil {
		return goerror.NewInvalidInput(nil, "end_at", "end_at must not be before start_at")
	}
	return nil
}

func (s *Usecase) EventCreate(ctx context.Context, in EventInput) (*entity.Event, error) {
	ctx, span := s.startSpan(ctx, "EventCreate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.prepare(&in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	e := entity.Event{
		ID:                  s.uid.Generate(),
		UserID:              clm.UserID,
		Title:               in.Title,
		Description:         in.Description,
		Location:            in.Location,
		StartAt:             s.atDate(in.StartAt, in.StartIsDate),
		EndAt:               s.atDate(in.EndAt, in.EndIsDate),
		AllDay:              in.AllDay,
		Color:               in.Color,
		RemindBeforeMinutes: in.RemindBeforeMinutes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.normalize(&e, in.EndIsDate); err != nil {
		return nil, err
	}

	if err := s.repoDB.CreateEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to repo create event", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &e, nil
}

type EventListInput struct {
	From       time.Time
	To         time.Time
	FromIsDate bool
	ToIsDate   bool
}

// EventListOutput is the window actually queried. Truncated is set when more
// than modules.calendar.max_list_size events overlap it.
type EventListOutput struct {
	From      time.Time
	To        time.Time
	Events    []entity.Event
	Truncated bool
}

// EventList returns events overlapping [From, To) ordered by start.
func (s *Usecase) EventList(ctx context.Context, in EventListInput) (*EventListOutput, error) {
	ctx, span := s.startSpan(ctx, "EventList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.From.IsZero() {
		return nil, goerror.NewInvalidInput(nil, "from", "from is required")
	}
	if in.To.IsZero() {
		return nil, goerror.NewInvalidInput(nil, "to", "to is required")
	}
	from, to := s.atDate(in.From, in.FromIsDate), s.atDate(in.To, in.ToIsDate)
	if !to.After(from) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be after from")
	}
	maxRange := s.cfg.GetDay("modules.calendar.max_range_days")
	if maxRange > 0 && to.Sub(from) > maxRange {
		return nil, goerror.NewInvalidInput(nil, "to", "range must not exceed "+s.cfg.GetString("modules.calendar.max_range_days")+" days")
	}

	limit := s.cfg.GetInt32("modules.calendar.max_list_size")
	if limit <= 0 {
		limit = 500
	}

	events, err := s.repoDB.ListEvents(ctx, entity.EventFilter{
		UserID: clm.UserID,
		From:   from,
		To:     to,
		Limit:  limit + 1,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list events", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &EventListOutput{From: from, To: to, Events: events}
	if len(events) > int(limit) {
		slog.WarnContext(ctx, "event list truncated", "user_id", clm.UserID, "limit", limit)
		out.Events, out.Truncated = events[:limit], true
	}

	return out, nil
}

func (s *Usecase) EventDetail(ctx context.Context, id int64) (*entity.Event, error) {
	ctx, span := s.startSpan(ctx, "EventDetail")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return s.loadEvent(ctx, id, clm.UserID)
}

// EventUpdate replaces the editable fields. A pending reminder is re-armed
// when the start or the reminder offset changes.
func (s *Usecase) EventUpdate(ctx context.Context, in EventInput) (*entity.Event, error) {
	ctx, span := s.startSpan(ctx, "EventUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.prepare(&in); err != nil {
		return nil, err
	}

	e, err := s.loadEvent(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}
	prevStart, prevRemind := e.StartAt, e.RemindBeforeMinutes

	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.StartAt = s.atDate(in.StartAt, in.StartIsDate)
	e.EndAt = s.atDate(in.EndAt, in.EndIsDate)
	e.AllDay = in.AllDay
	e.Color = in.Color
	e.RemindBeforeMinutes = in.RemindBeforeMinutes
	if err := s.normalize(e, in.EndIsDate); err != nil {
		return nil, err
	}

	if !e.StartAt.Equal(prevStart) || !sameMinutes(prevRemind, e.RemindBeforeMinutes) {
		e.RemindedAt = nil
	}
	e.UpdatedAt = s.clock.Now()

	err = s.repoDB.UpdateEvent(ctx, *e)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Event not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update event", "event_id", e.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return e, nil
}

func (s *Usecase) EventDelete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "EventDelete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteEvent(ctx, id, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "event to delete not found", "event_id", id, "user_id", clm.UserID)
			return goerror.NewBusiness("Event not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete event", "event_id", id, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func sameMinutes(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
