package usecase

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

// OperationUpdate replays identity fields only; OperationCondition replays energy and mood only.
const (
	OperationUpdate    = "update"
	OperationCondition = "condition"
	OperationRecompute = "recompute"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, user *domain.User) error
	// DeferBaseline schedules a baseline recompute for userID to be retried later.
	DeferBaseline(ctx context.Context, userID string) error
}
