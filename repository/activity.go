package repository

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

type ActivityFilter struct {
	UserID string
	Type   domain.ActivityType
	Limit  int
}

type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]domain.ActivityLog, error)
}
