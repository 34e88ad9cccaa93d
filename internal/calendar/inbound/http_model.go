package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/calendar/entity"
)

type EventRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	StartAt             string `json:"start_at"`
	EndAt               string `json:"end_at"`
	AllDay              bool   `json:"all_day"`
	Color               string `json:"color"`
	RemindBeforeMinutes *int32 `json:"remind_before_minutes"`
}

type EventResponse struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Location            string  `json:"location"`
	StartAt             string  `json:"start_at"`
	EndAt               string  `json:"end_at"`
	AllDay              bool    `json:"all_day"`
	Color               string  `json:"color"`
	RemindBeforeMinutes *int32  `json:"remind_before_minutes"`
	RemindedAt          *string `json:"reminded_at"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

type EventCreatedResponse struct {
	EventResponse
}

func (EventCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

func (EventCreatedResponse) Message() string {
	return "Event created"
}

type EventsResponse struct {
	Events    []EventResponse `json:"events"`
	from      time.Time
	to        time.Time
	truncated bool
}

func (r EventsResponse) Meta() map[string]any {
	return map[string]any{
		"from":      r.from.Format(time.RFC3339),
		"to":        r.to.Format(time.RFC3339),
		"count":     len(r.Events),
		"truncated": r.truncated,
	}
}

func toEventResponse(e entity.Event) EventResponse {
	resp := EventResponse{
		ID:                  strconv.FormatInt(e.ID, 10),
		Title:               e.Title,
		Description:         e.Description,
		Location:            e.Location,
		StartAt:             e.StartAt.Format(time.RFC3339),
		EndAt:               e.EndAt.Format(time.RFC3339),
		AllDay:              e.AllDay,
		Color:               e.Color,
		RemindBeforeMinutes: e.RemindBeforeMinutes,
		CreatedAt:           e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           e.UpdatedAt.Format(time.RFC3339),
	}
	if e.RemindedAt != nil {
		v := e.RemindedAt.Format(time.RFC3339)
		resp.RemindedAt = &v
	}
	return resp
}
