package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
	"github.com/shandysiswandi/gofocus/internal/pomodoro/usecase"
)

type HTTPEndpoint struct {
	uc uc
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, goerror.NewInvalidInput(nil, field, field+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func (h *HTTPEndpoint) Start(r *router.Request) (any, error) {
	var req SessionStartRequest
	if r.ContentLength != 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}
	if req.Kind == "" {
		req.Kind = string(entity.KindFocus)
	}

	s, err := h.uc.SessionStart(r.Context(), usecase.SessionStartInput{
		Kind:           req.Kind,
		PlannedMinutes: req.PlannedMinutes,
		TodoID:         req.TodoID,
		GoalID:         req.GoalID,
	})
	if err != nil {
		return nil, err
	}

	return SessionStartedResponse{SessionResponse: toSessionResponse(*s)}, nil
}

func (h *HTTPEndpoint) Current(r *router.Request) (any, error) {
	out, err := h.uc.SessionCurrent(r.Context())
	if err != nil {
		return nil, err
	}

	return SessionCurrentResponse{
		SessionResponse:  toSessionResponse(out.Session),
		RemainingSeconds: out.RemainingSeconds,
		EndsAt:           out.Session.PlannedEnd().Format(time.RFC3339),
	}, nil
}

func (h *HTTPEndpoint) Complete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	s, err := h.uc.SessionComplete(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toSessionResponse(*s), nil
}

func (h *HTTPEndpoint) Cancel(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	s, err := h.uc.SessionCancel(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toSessionResponse(*s), nil
}

func (h *HTTPEndpoint) History(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	from, err := parseTime("from", r.GetQuery("from"))
	if err != nil {
		return nil, err
	}
	to, err := parseTime("to", r.GetQuery("to"))
	if err != nil {
		return nil, err
	}

	out, err := h.uc.SessionHistory(r.Context(), usecase.SessionHistoryInput{
		From:   from,
		To:     to,
		Kind:   r.GetQuery("kind"),
		Status: r.GetQuery("status"),
		Size:   size,
		Page:   page,
	})
	if err != nil {
		return nil, err
	}

	return SessionsResponse{
		Sessions: lo.Map(out.Sessions, func(s entity.Session, _ int) SessionResponse { return toSessionResponse(s) }),
		total:    out.Total,
		size:     out.Size,
		page:     out.Page,
	}, nil
}

func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	from, err := r.GetQueryDate("from", time.DateOnly)
	if err != nil {
		return nil, err
	}
	to, err := r.GetQueryDate("to", time.DateOnly)
	if err != nil {
		return nil, err
	}

	st, err := h.uc.Stats(r.Context(), usecase.StatsInput{From: from, To: to})
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		From:              st.From.Format(time.DateOnly),
		To:                st.To.Format(time.DateOnly),
		TotalSessions:     st.TotalSessions,
		TotalFocusMinutes: st.TotalFocusMinutes,
		Days: lo.Map(st.Days, func(d entity.DayStat, _ int) DayStatResponse {
			return DayStatResponse{Date: d.Date.Format(time.DateOnly), Sessions: d.Sessions, FocusMinutes: d.FocusMinutes}
		}),
	}, nil
}
