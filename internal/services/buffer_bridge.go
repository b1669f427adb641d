package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
	"github.com/fastygo/taskpulse/usecase"
)

const (
	profilePriority  = 3
	baselinePriority = 2
)

// BufferBridge exposes the processor to use cases through usecase.OperationBuffer.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if b.processor == nil || user == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	entity := buffer.EntityProfile
	if operation == usecase.OperationCondition {
		entity = buffer.EntityCondition
	}
	item := buffer.Item{
		UserID:    user.ID,
		Entity:    entity,
		Operation: operation,
		Data:      payload,
		Priority:  profilePriority,
	}
	return b.processor.BufferOperation(ctx, item)
}

// DeferBaseline queues a recompute without retrying inline; the caller has just failed one.
func (b *BufferBridge) DeferBaseline(ctx context.Context, userID string) error {
	if b.processor == nil || userID == "" {
		return domain.ErrInvalidPayload
	}
	item := buffer.Item{
		UserID:    userID,
		Entity:    buffer.EntityBaseline,
		Operation: usecase.OperationRecompute,
		Priority:  baselinePriority,
	}
	return b.processor.Defer(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
