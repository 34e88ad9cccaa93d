package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
	"github.com/shandysiswandi/gofocus/internal/shared/paging"
)

var errRunningExists = goerror.NewBusiness("Another session is already running", goerror.CodeConflict)

type SessionStartInput struct {
	Kind           string `validate:"required,oneof=focus short_break long_break"`
	PlannedMinutes int32  `validate:"omitempty,min=1,max=240"`
	TodoID         int64  `validate:"omitempty,gt=0"`
	GoalID         int64  `validate:"omitempty,gt=0"`
}

// SessionStart begins a timer. A user has at most one running session.
func (s *Usecase) SessionStart(ctx context.Context, in SessionStartInput) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "SessionStart")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	kind := entity.Kind(in.Kind)
	if in.PlannedMinutes == 0 {
		in.PlannedMinutes = s.defaultMinutes(kind)
	}

	ss := entity.Session{
		ID:             s.uid.Generate(),
		UserID:         clm.UserID,
		Kind:           kind,
		Status:         entity.StatusRunning,
		PlannedMinutes: in.PlannedMinutes,
		TodoID:         in.TodoID,
		GoalID:         in.GoalID,
		StartedAt:      s.clock.Now(),
	}

	err = s.repoDB.CreateSession(ctx, ss)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "pomodoro session already running", "user_id", clm.UserID)
		return nil, errRunningExists
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ss, nil
}

type SessionCurrentOutput struct {
	Session          entity.Session
	RemainingSeconds int64
}

func (s *Usecase) SessionCurrent(ctx context.Context) (*SessionCurrentOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionCurrent")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ss, err := s.repoDB.GetRunningSession(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("No running session", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get running session", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionCurrentOutput{Session: *ss, RemainingSeconds: ss.RemainingSeconds(s.clock.Now())}, nil
}

// SessionComplete ends a running session. Completed focus sessions are
// announced on the pomodoro_completed topic.
func (s *Usecase) SessionComplete(ctx context.Context, id int64) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "SessionComplete")
	defer span.End()

	ss, err := s.finish(ctx, id, entity.StatusCompleted)
	if err != nil {
		return nil, err
	}

	if ss.Kind == entity.KindFocus {
		if err := s.repoMQ.PublishPomodoroCompleted(ctx, PomodoroCompletedEvent{
			SessionID:    ss.ID,
			UserID:       ss.UserID,
			GoalID:       ss.GoalID,
			TodoID:       ss.TodoID,
			FocusMinutes: ss.FocusMinutes(),
			CompletedAt:  *ss.EndedAt,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish pomodoro completed", "session_id", ss.ID, "error", err)
		}
	}

	return ss, nil
}

func (s *Usecase) SessionCancel(ctx context.Context, id int64) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "SessionCancel")
	defer span.End()

	return s.finish(ctx, id, entity.StatusCancelled)
}

func (s *Usecase) finish(ctx context.Context, id int64, status entity.Status) (*entity.Session, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ss, err := s.loadSession(ctx, id, clm.UserID)
	if err != nil {
		return nil, err
	}

	if err := ss.Finish(status, s.clock.Now()); err != nil {
		return nil, goerror.NewBusiness("Session is not running", goerror.CodeConflict)
	}

	err = s.repoDB.FinishSession(ctx, *ss)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "pomodoro session finished concurrently", "session_id", id)
		return nil, goerror.NewBusiness("Session is not running", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo finish session", "session_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return ss, nil
}

type SessionHistoryInput struct {
	From   time.Time
	To     time.Time
	Kind   string `validate:"omitempty,oneof=focus short_break long_break"`
	Status string `validate:"omitempty,oneof=running completed cancelled"`
	Size   int32
	Page   int32
}

type SessionHistoryOutput struct {
	Page     int32
	Size     int32
	Total    int64
	Sessions []entity.Session
}

func (s *Usecase) SessionHistory(ctx context.Context, in SessionHistoryInput) (*SessionHistoryOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionHistory")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !in.From.IsZero() && !in.To.IsZero() && !in.To.After(in.From) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be after from")
	}

	in.Size = paging.Size(in.Size)
	page := max(in.Page, 1)

	sessions, total, err := s.repoDB.ListSessions(ctx, entity.SessionFilter{
		UserID: clm.UserID,
		From:   in.From,
		To:     in.To,
		Kind:   entity.Kind(in.Kind),
		Status: entity.Status(in.Status),
		Limit:  in.Size,
		Offset: (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list sessions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionHistoryOutput{Page: page, Size: in.Size, Total: total, Sessions: sessions}, nil
}
