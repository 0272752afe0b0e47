package tasks

import (
	"strings"
	"time"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// Status is the lifecycle state of a task.
type Status string

// Allowed statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the closed status set in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// ParseStatus validates raw against the closed status set.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses() {
		if raw == string(s) {
			return s, nil
		}
	}
	return "", shared.ErrInvalidStatus
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields of a new task. UserID may be empty to mean the caller.
type CreateInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	UserID      string
}

// UpdateInput carries a partial update. Nil fields keep their stored value.
type UpdateInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *string
}

// Ref identifies the task an operation targets and, optionally, the owner the client claims.
type Ref struct {
	TaskID string
	UserID string
}

func (in UpdateInput) apply(t *Task, status Status) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate.UTC()
	}
	if status != "" {
		t.Status = status
	}
}
