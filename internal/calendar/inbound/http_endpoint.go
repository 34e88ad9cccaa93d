package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
	"github.com/shandysiswandi/gofocus/internal/calendar/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// parseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. A date
// comes back as UTC midnight with isDate set; the usecase places it in the
// server zone.
func parseTime(field, value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, goerror.NewInvalidInput(nil, field, field+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func (h *HTTPEndpoint) input(req EventRequest) (usecase.EventInput, error) {
	start, startIsDate, err := parseTime("start_at", req.StartAt)
	if err != nil {
		return usecase.EventInput{}, err
	}
	end, endIsDate, err := parseTime("end_at", req.EndAt)
	if err != nil {
		return usecase.EventInput{}, err
	}
	if end.IsZero() {
		end, endIsDate = start, startIsDate
	}

	return usecase.EventInput{
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		StartAt:             start,
		EndAt:               end,
		AllDay:              req.AllDay,
		Color:               req.Color,
		RemindBeforeMinutes: req.RemindBeforeMinutes,
		StartIsDate:         startIsDate,
		EndIsDate:           endIsDate,
	}, nil
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req EventRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in, err := h.input(req)
	if err != nil {
		return nil, err
	}

	e, err := h.uc.EventCreate(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return EventCreatedResponse{EventResponse: toEventResponse(*e)}, nil
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	from, fromIsDate, err := parseTime("from", r.GetQuery("from"))
	if err != nil {
		return nil, err
	}
	to, toIsDate, err := parseTime("to", r.GetQuery("to"))
	if err != nil {
		return nil, err
	}

	out, err := h.uc.EventList(r.Context(), usecase.EventListInput{
		From:       from,
		To:         to,
		FromIsDate: fromIsDate,
		ToIsDate:   toIsDate,
	})
	if err != nil {
		return nil, err
	}

	return EventsResponse{
		Events:    lo.Map(out.Events, func(e entity.Event, _ int) EventResponse { return toEventResponse(e) }),
		from:      out.From,
		to:        out.To,
		truncated: out.Truncated,
	}, nil
}

func (h *HTTPEndpoint) Detail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	e, err := h.uc.EventDetail(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toEventResponse(*e), nil
}

func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req EventRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in, err := h.input(req)
	if err != nil {
		return nil, err
	}
	in.ID = id

	e, err := h.uc.EventUpdate(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return toEventResponse(*e), nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.EventDelete(r.Context(), id)
}
