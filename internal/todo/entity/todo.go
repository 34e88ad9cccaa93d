package entity

import "time"

const DateLayout = time.DateOnly

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
	CompletedAt *time.Time
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Toggle flips completion. Marking done stamps CompletedAt with now,
// reopening clears it.
func (t *Todo) Toggle(now time.Time) {
	if t.Status == StatusDone {
		t.Status = StatusOpen
		t.CompletedAt = nil
		return
	}
	t.Status = StatusDone
	t.CompletedAt = &now
}

type TodoFilter struct {
	UserID   int64
	Status   Status
	Priority Priority
	DueFrom  time.Time
	DueTo    time.Time
	Search   string
	Tag      string
	Limit    int32
	Offset   int32
}
