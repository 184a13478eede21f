package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/google/uuid"
)

// TaskRepository handles task data access
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.SQL.ExecContext(ctx, query,
		task.ID.String(),
		task.UserID.String(),
		task.Title,
		task.Description,
		string(task.Status),
		formatNullTime(task.DueDate),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task owned by ownerID
func (r *TaskRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`

	task, err := scanTask(r.db.SQL.QueryRowContext(ctx, query, id.String(), ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListByOwner retrieves all tasks of a user, newest first
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.SQL.QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Update saves a task. The owner must match.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	res, err := r.db.SQL.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		formatNullTime(task.DueDate),
		formatTime(task.UpdatedAt),
		task.ID.String(),
		task.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return expectOneRow(res, "update task")
}

// Delete removes a task owned by ownerID
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.SQL.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return expectOneRow(res, "delete task")
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                 domain.Task
		status               string
		dueDate              sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&dueDate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	task.Status = domain.TaskStatus(status)
	if task.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &task, nil
}
