package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/goal/entity"
)

type GoalCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type GoalUpdateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	EndDate     *string `json:"end_date"`
}

type GoalAchieveRequest struct {
	Note string `json:"note"`
}

type GoalResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Period         string  `json:"period"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	Status         string  `json:"status"`
	CurrentStreak  int32   `json:"current_streak"`
	MaxStreak      int32   `json:"max_streak"`
	LastAchievedOn *string `json:"last_achieved_on"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type GoalCreatedResponse struct {
	GoalResponse
}

func (GoalCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

func (GoalCreatedResponse) Message() string {
	return "Goal created"
}

type GoalsResponse struct {
	Goals []GoalResponse `json:"goals"`
	total int64
	size  int32
	page  int32
}

func (r GoalsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type GoalAchieveResponse struct {
	PeriodStart string       `json:"period_start"`
	Goal        GoalResponse `json:"goal"`
}

func (GoalAchieveResponse) Message() string {
	return "Goal achieved"
}

type AchievementResponse struct {
	ID          string `json:"id"`
	PeriodStart string `json:"period_start"`
	AchievedAt  string `json:"achieved_at"`
	Note        string `json:"note"`
}

type AchievementsResponse struct {
	Achievements []AchievementResponse `json:"achievements"`
}

type GoalStatsResponse struct {
	CurrentStreak int32   `json:"current_streak"`
	MaxStreak     int32   `json:"max_streak"`
	Achieved      int     `json:"achieved"`
	TotalPeriods  int     `json:"total_periods"`
	Rate          float64 `json:"rate"`
	From          string  `json:"from"`
	To            string  `json:"to"`
}

func toGoalResponse(g entity.Goal) GoalResponse {
	resp := GoalResponse{
		ID:            strconv.FormatInt(g.ID, 10),
		Title:         g.Title,
		Description:   g.Description,
		Period:        string(g.Period),
		StartDate:     g.StartDate.Format(entity.DateLayout),
		Status:        string(g.Status),
		CurrentStreak: g.CurrentStreak,
		MaxStreak:     g.MaxStreak,
		CreatedAt:     g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     g.UpdatedAt.Format(time.RFC3339),
	}
	if g.EndDate != nil {
		v := g.EndDate.Format(entity.DateLayout)
		resp.EndDate = &v
	}
	if g.LastAchievedOn != nil {
		v := g.LastAchievedOn.Format(entity.DateLayout)
		resp.LastAchievedOn = &v
	}
	return resp
}
