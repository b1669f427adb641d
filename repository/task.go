package repository

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

// TaskFilter narrows List. A Limit of zero or less returns every matching task.
type TaskFilter struct {
	UserID string
	State  domain.TaskState
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListScored returns the user's completed tasks that carry both scores.
	ListScored(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
