package repository

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Upsert writes identity fields only; baseline, energy and mood are left untouched on update.
	Upsert(ctx context.Context, user *domain.User) error
	UpdateBaseline(ctx context.Context, id string, baseline domain.Baseline) error
	UpdateCondition(ctx context.Context, id string, energy int, mood domain.Mood) error
}
