package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/pomodoro/entity"
)

type SessionStartRequest struct {
	Kind           string `json:"kind"`
	PlannedMinutes int32  `json:"planned_minutes"`
	TodoID         int64  `json:"todo_id,string"`
	GoalID         int64  `json:"goal_id,string"`
}

type SessionResponse struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	PlannedMinutes int32   `json:"planned_minutes"`
	TodoID         *string `json:"todo_id"`
	GoalID         *string `json:"goal_id"`
	StartedAt      string  `json:"started_at"`
	EndedAt        *string `json:"ended_at"`
}

type SessionStartedResponse struct {
	SessionResponse
}

func (SessionStartedResponse) StatusCode() int {
	return http.StatusCreated
}

func (SessionStartedResponse) Message() string {
	return "Session started"
}

type SessionCurrentResponse struct {
	SessionResponse
	RemainingSeconds int64  `json:"remaining_seconds"`
	EndsAt           string `json:"ends_at"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	total    int64
	size     int32
	page     int32
}

func (r SessionsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type DayStatResponse struct {
	Date         string `json:"date"`
	Sessions     int    `json:"sessions"`
	FocusMinutes int    `json:"focus_minutes"`
}

type StatsResponse struct {
	From              string            `json:"from"`
	To                string            `json:"to"`
	TotalSessions     int               `json:"total_sessions"`
	TotalFocusMinutes int               `json:"total_focus_minutes"`
	Days              []DayStatResponse `json:"days"`
}

func optionalID(id int64) *string {
	if id == 0 {
		return nil
	}
	v := strconv.FormatInt(id, 10)
	return &v
}

func toSessionResponse(s entity.Session) SessionResponse {
	resp := SessionResponse{
		ID:             strconv.FormatInt(s.ID, 10),
		Kind:           string(s.Kind),
		Status:         string(s.Status),
		PlannedMinutes: s.PlannedMinutes,
		TodoID:         optionalID(s.TodoID),
		GoalID:         optionalID(s.GoalID),
		StartedAt:      s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		v := s.EndedAt.Format(time.RFC3339)
		resp.EndedAt = &v
	}
	return resp
}
