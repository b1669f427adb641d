package profile

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
)

// Update carries the identity fields a user may change. Nil fields are left as is.
type Update struct {
	Email    *string
	Role     *string
	Status   *string
	Metadata map[string]string
}

type UseCase struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	buffer     usecase.OperationBuffer
	logger     *zap.Logger

	Now func() time.Time
}

func New(users repository.UserRepository, activities repository.ActivityRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:      users,
		activities: activities,
		buffer:     buffer,
		logger:     logger,
		Now:        time.Now,
	}
}

// GetProfile returns the user, provisioning a default record on first access.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user = domain.NewUser(userID)
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to provision user", err)
	}
	return user, nil
}

// UpdateProfile writes identity fields. Baseline, energy and mood are never touched here.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, upd Update) (*domain.User, error) {
	user, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		user.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Role != nil {
		user.Role = strings.TrimSpace(*upd.Role)
	}
	if upd.Status != nil {
		user.Status = strings.TrimSpace(*upd.Status)
	}
	if upd.Metadata != nil {
		user.Metadata = upd.Metadata
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		return uc.bufferProfile(ctx, usecase.OperationUpdate, user, err)
	}
	return user, nil
}

// RecordActivity appends an activity entry and applies mood or energy changes to the user.
// Unknown moods and out-of-range energy are recorded but leave the user untouched.
func (uc *UseCase) RecordActivity(ctx context.Context, userID string, kind domain.ActivityType, meta json.RawMessage) (*domain.ActivityLog, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidActivity
	}
	if len(meta) > 0 && !json.Valid(meta) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "meta must be valid JSON")
	}

	user, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &domain.ActivityLog{
		UserID:    userID,
		Type:      kind,
		Meta:      meta,
		Timestamp: uc.Now().UTC(),
	}
	if err := uc.activities.Append(ctx, entry); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to record activity", err)
	}

	if !applyCondition(user, entry) {
		return entry, nil
	}
	if err := uc.users.UpdateCondition(ctx, user.ID, user.CurrentEnergyLevel, user.CurrentMood); err != nil {
		if _, bufErr := uc.bufferProfile(ctx, usecase.OperationCondition, user, err); bufErr != nil {
			return nil, bufErr
		}
	}
	return entry, nil
}

// applyCondition copies a valid mood or energy from entry onto user and reports whether it changed anything.
func applyCondition(user *domain.User, entry *domain.ActivityLog) bool {
	meta := entry.DecodeMeta()
	switch entry.Type {
	case domain.ActivityMoodUpdate:
		mood, ok := domain.ParseMood(meta.Mood)
		if !ok {
			return false
		}
		user.CurrentMood = mood
		return true
	case domain.ActivityEnergyUpdate:
		if meta.Energy == nil || *meta.Energy < domain.MinEnergyLevel || *meta.Energy > domain.MaxEnergyLevel {
			return false
		}
		user.CurrentEnergyLevel = int(math.Round(*meta.Energy))
		return true
	default:
		return false
	}
}

// bufferProfile queues the failed write. operation decides which fields the replay writes.
func (uc *UseCase) bufferProfile(ctx context.Context, operation string, user *domain.User, cause error) (*domain.User, error) {
	if uc.buffer == nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to persist profile", cause)
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if bufErr := uc.buffer.BufferProfile(ctx, operation, user); bufErr != nil {
		log.Error("failed to buffer profile update", zap.Error(bufErr), zap.NamedError("cause", cause))
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to persist profile", cause)
	}
	log.Warn("profile update buffered due to repository error", zap.Error(cause))
	return user, nil
}
