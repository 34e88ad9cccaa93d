package inbound

import (
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/goal/entity"
	"github.com/shandysiswandi/gofocus/internal/goal/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
)

// HTTPEndpoint exposes goal tracking over HTTP.
type HTTPEndpoint struct {
	uc uc
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, goerror.NewInvalidInput(nil, field, field+" must be a YYYY-MM-DD date")
	}
	return t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req GoalCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	g, err := h.uc.GoalCreate(r.Context(), usecase.GoalCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Period:      req.Period,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return nil, err
	}

	return GoalCreatedResponse{GoalResponse: toGoalResponse(*g)}, nil
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.GoalList(r.Context(), usecase.GoalListInput{
		Status: r.GetQuery("status"),
		Period: r.GetQuery("period"),
		Size:   size,
		Page:   page,
	})
	if err != nil {
		return nil, err
	}

	return GoalsResponse{
		Goals: lo.Map(resp.Goals, func(g entity.Goal, _ int) GoalResponse { return toGoalResponse(g) }),
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

func (h *HTTPEndpoint) Detail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	g, err := h.uc.GoalDetail(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toGoalResponse(*g), nil
}

func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req GoalUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	g, err := h.uc.GoalUpdate(r.Context(), usecase.GoalUpdateInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		EndDate:     end,
	})
	if err != nil {
		return nil, err
	}

	return toGoalResponse(*g), nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.GoalDelete(r.Context(), id)
}

func (h *HTTPEndpoint) Achieve(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req GoalAchieveRequest
	if r.ContentLength != 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	resp, err := h.uc.GoalAchieve(r.Context(), usecase.GoalAchieveInput{ID: id, Note: req.Note})
	if err != nil {
		return nil, err
	}

	return GoalAchieveResponse{
		PeriodStart: resp.PeriodStart.Format(entity.DateLayout),
		Goal:        toGoalResponse(resp.Goal),
	}, nil
}

func (h *HTTPEndpoint) Achievements(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}
	from, err := r.GetQueryDate("from", entity.DateLayout)
	if err != nil {
		return nil, err
	}
	to, err := r.GetQueryDate("to", entity.DateLayout)
	if err != nil {
		return nil, err
	}

	items, err := h.uc.GoalAchievements(r.Context(), usecase.GoalAchievementsInput{ID: id, From: from, To: to})
	if err != nil {
		return nil, err
	}

	return AchievementsResponse{
		Achievements: lo.Map(items, func(a entity.Achievement, _ int) AchievementResponse {
			return AchievementResponse{
				ID:          strconv.FormatInt(a.ID, 10),
				PeriodStart: a.PeriodStart.Format(entity.DateLayout),
				AchievedAt:  a.AchievedAt.Format(time.RFC3339),
				Note:        a.Note,
			}
		}),
	}, nil
}

func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}
	from, err := r.GetQueryDate("from", entity.DateLayout)
	if err != nil {
		return nil, err
	}
	to, err := r.GetQueryDate("to", entity.DateLayout)
	if err != nil {
		return nil, err
	}

	st, err := h.uc.GoalStats(r.Context(), usecase.GoalStatsInput{ID: id, From: from, To: to})
	if err != nil {
		return nil, err
	}

	return GoalStatsResponse{
		CurrentStreak: st.CurrentStreak,
		MaxStreak:     st.MaxStreak,
		Achieved:      st.Achieved,
		TotalPeriods:  st.TotalPeriods,
		Rate:          st.Rate,
		From:          st.From.Format(entity.DateLayout),
		To:            st.To.Format(entity.DateLayout),
	}, nil
}
