package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

const taskColumns = `id, user_id, title, description, type, priority, deadline, reminder_at,
	started_at, completed, completed_at, actual_time_spent, productivity_score, distraction_score,
	metadata, created_at, updated_at`

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a SQLite-backed implementation of TaskRepository.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`)
	args := []any{}

	if filter.UserID != "" {
		q.WriteString(" AND user_id = ?")
		args = append(args, filter.UserID)
	}
	switch filter.State {
	case domain.StateCompleted:
		q.WriteString(" AND completed = 1")
	case domain.StateStarted:
		q.WriteString(" AND completed = 0 AND started_at IS NOT NULL")
	case domain.StateNotStarted:
		q.WriteString(" AND completed = 0 AND started_at IS NULL")
	}
	q.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", optionalLimit(filter.Limit), max(filter.Offset, 0)))

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepository) ListScored(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ?
		  AND completed = 1
		  AND productivity_score IS NOT NULL
		  AND distraction_score IS NOT NULL
		ORDER BY completed_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scored tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, type, priority, deadline, reminder_at,
			started_at, completed, completed_at, actual_time_spent, productivity_score, distraction_score,
			metadata, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		task.ID, task.UserID, task.Title, task.Description, task.Type, string(task.Priority),
		task.Deadline.UTC(), task.ReminderAt.UTC(),
		nullTime(task.StartedAt), task.Completed, nullTime(task.CompletedAt),
		nullInt(task.ActualTimeSpent), nullFloat(task.ProductivityScore), nullFloat(task.DistractionScore),
		encodeMap(task.Metadata), task.CreatedAt.UTC(), task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	task.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			title=?, description=?, type=?, priority=?, deadline=?, reminder_at=?,
			started_at=?, completed=?, completed_at=?, actual_time_spent=?,
			productivity_score=?, distraction_score=?, metadata=?, updated_at=?
		WHERE id=?`,
		task.Title, task.Description, task.Type, string(task.Priority),
		task.Deadline.UTC(), task.ReminderAt.UTC(),
		nullTime(task.StartedAt), task.Completed, nullTime(task.CompletedAt), nullInt(task.ActualTimeSpent),
		nullFloat(task.ProductivityScore), nullFloat(task.DistractionScore), encodeMap(task.Metadata), task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func collectTasks(rows *sql.Rows) ([]domain.Task, error) {
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*domain.Task, error) {
	var task domain.Task
	var (
		priority, metadata        string
		startedAt, completedAt    sql.NullTime
		actual                    sql.NullInt64
		productivity, distraction sql.NullFloat64
	)

	err := s.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Type, &priority,
		&task.Deadline, &task.ReminderAt,
		&startedAt, &task.Completed, &completedAt, &actual,
		&productivity, &distraction,
		&metadata, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Deadline = task.Deadline.UTC()
	task.ReminderAt = task.ReminderAt.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	task.StartedAt = timePtr(startedAt)
	task.CompletedAt = timePtr(completedAt)
	task.ActualTimeSpent = intPtr(actual)
	task.ProductivityScore = floatPtr(productivity)
	task.DistractionScore = floatPtr(distraction)
	task.Metadata = decodeMap(metadata)
	return &task, nil
}
