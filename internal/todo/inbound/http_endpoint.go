package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/todo/entity"
	"github.com/shandysiswandi/gofocus/internal/todo/usecase"
)

type HTTPEndpoint struct {
	uc uc
}

func parseDueDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(entity.DateLayout, *value)
	if err != nil {
		return nil, goerror.NewInvalidInput(nil, "due_date", "due_date must be a YYYY-MM-DD date")
	}
	return &t, nil
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req TodoRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.TodoCreate(r.Context(), usecase.TodoCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
		Tags:        req.Tags,
	})
	if err != nil {
		return nil, err
	}

	return TodoCreatedResponse{TodoResponse: toTodoResponse(*t)}, nil
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
	dueFrom, err := r.GetQueryDate("due_from", entity.DateLayout)
	if err != nil {
		return nil, err
	}
	dueTo, err := r.GetQueryDate("due_to", entity.DateLayout)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.TodoList(r.Context(), usecase.TodoListInput{
		Status:   r.GetQuery("status"),
		Priority: r.GetQuery("priority"),
		DueFrom:  dueFrom,
		DueTo:    dueTo,
		Search:   r.GetQuery("search"),
		Tag:      r.GetQuery("tag"),
		Size:     size,
		Page:     page,
	})
	if err != nil {
		return nil, err
	}

	return TodosResponse{
		Todos: lo.Map(resp.Todos, func(t entity.Todo, _ int) TodoResponse { return toTodoResponse(t) }),
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

	t, err := h.uc.TodoDetail(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toTodoResponse(*t), nil
}

func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req TodoRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.TodoUpdate(r.Context(), usecase.TodoUpdateInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
		Tags:        req.Tags,
	})
	if err != nil {
		return nil, err
	}

	return toTodoResponse(*t), nil
}

func (h *HTTPEndpoint) Complete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	t, err := h.uc.TodoToggle(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return toTodoResponse(*t), nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.TodoDelete(r.Context(), id)
}
