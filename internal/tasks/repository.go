package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// Repository defines persistence operations for tasks.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	ListByOwner(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, user_id, title, description, due_date, status, created_at, updated_at`

// Create inserts a task.
func (r *PGRepository) Create(ctx context.Context, task *Task) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.UserID, task.Title, task.Description, task.DueDate, string(task.Status), task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tasks: insert: %w", err)
	}
	return nil
}

// Get fetches a task by id.
func (r *PGRepository) Get(ctx context.Context, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, fmt.Errorf("tasks: get: %w", err)
	}
	return &task, nil
}

// ListByOwner returns the tasks of a user in creation order.
func (r *PGRepository) ListByOwner(ctx context.Context, userID string) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	defer rows.Close()
	out := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("tasks: scan: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	return out, nil
}

// Update overwrites the mutable fields of a task.
func (r *PGRepository) Update(ctx context.Context, task *Task) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET title = $2, description = $3, due_date = $4, status = $5, updated_at = $6 WHERE id = $1`,
		task.ID, task.Title, task.Description, task.DueDate, string(task.Status), task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tasks: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tasks: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (Task, error) {
	var (
		task   Task
		status string
	)
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &status, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return Task{}, err
	}
	task.Status = Status(status)
	return task, nil
}

var _ Repository = (*PGRepository)(nil)
