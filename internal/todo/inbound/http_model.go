package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/gofocus/internal/todo/entity"
)

type TodoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"due_date"`
	Tags        []string `json:"tags"`
}

type TodoResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	DueDate     *string  `json:"due_date"`
	CompletedAt *string  `json:"completed_at"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type TodoCreatedResponse struct {
	TodoResponse
}

func (TodoCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

func (TodoCreatedResponse) Message() string {
	return "Todo created"
}

type TodosResponse struct {
	Todos []TodoResponse `json:"todos"`
	total int64
	size  int32
	page  int32
}

func (r TodosResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

func toTodoResponse(t entity.Todo) TodoResponse {
	resp := TodoResponse{
		ID:          strconv.FormatInt(t.ID, 10),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.DueDate != nil {
		v := t.DueDate.Format(entity.DateLayout)
		resp.DueDate = &v
	}
	if t.CompletedAt != nil {
		v := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}
