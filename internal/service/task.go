package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/google/uuid"
)

const minTitleLength = 3

// TaskService handles task operations for an authenticated owner
type TaskService struct {
	taskRepo domain.TaskRepository
	now      func() time.Time
}

// NewTaskService creates a new task service. A nil now uses time.Now.
func NewTaskService(taskRepo domain.TaskRepository, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		taskRepo: taskRepo,
		now:      now,
	}
}

// normalizeTitle trims the title and enforces the minimum length on the result
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return "", fmt.Errorf("%w: title must be at least %d characters", domain.ErrValidation, minTitleLength)
	}
	return title, nil
}

// Create creates a task owned by ownerID
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	now := s.now().UTC()
	task := &domain.Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// List returns the owner's tasks, newest first
func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns a single task. A task owned by someone else is ErrNotFound.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

// Update applies the supplied fields to a task
func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, input domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *input.Status)
		}
		task.Status = *input.Status
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.taskRepo.Delete(ctx, taskID, ownerID)
}
