package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskCreate represents task creation data
type TaskCreate struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"max=10000"`
	Status      TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskUpdate represents a partial task update; nil fields are left unchanged
type TaskUpdate struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
}

// TaskRepository stores tasks. Every lookup is scoped by owner: a task that
// exists but belongs to someone else is indistinguishable from a missing one.
// GetByID returns (nil, nil) when nothing matches; Update and Delete return
// ErrNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}
