package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase/scoring"
)

// CreateInput is the caller-supplied part of a new task.
type CreateInput struct {
	Title       string
	Description string
	Type        string
	Priority    string
	Deadline    *time.Time
	Metadata    map[string]string
}

type UseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	enricher *scoring.Enricher
	resolver *scoring.Resolver
	logger   *zap.Logger

	Now func() time.Time
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	enricher *scoring.Enricher,
	resolver *scoring.Resolver,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		users:    users,
		enricher: enricher,
		resolver: resolver,
		logger:   logger,
		Now:      time.Now,
	}
}

// ListTasks returns the user's tasks newest first with predictions attached to active ones.
func (uc *UseCase) ListTasks(ctx context.Context, userID string) ([]scoring.EnrichedTask, error) {
	list, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, len(list))
	for i := range list {
		tasks[i] = &list[i]
	}
	if uc.enricher == nil {
		out := make([]scoring.EnrichedTask, len(tasks))
		for i, t := range tasks {
			out[i].Task = t
		}
		return out, nil
	}
	return uc.enricher.Enrich(ctx, uc.baselineOwner(ctx, userID), tasks), nil
}

// baselineOwner loads the user for enrichment; a lookup failure falls back to defaults.
func (uc *UseCase) baselineOwner(ctx context.Context, userID string) *domain.User {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.WithRequestID(ctx, uc.logger).Warn("user lookup failed, enriching with default baseline", zap.Error(err))
		}
		return domain.NewUser(userID)
	}
	return user
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, in CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	kind := strings.TrimSpace(in.Type)
	if title == "" || kind == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title and type are required")
	}
	priority, ok := domain.ParsePriority(in.Priority)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeInvalid, "priority must be Low, Medium or High")
	}
	if err := uc.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Type:        kind,
		Priority:    priority,
		Metadata:    in.Metadata,
	}
	if in.Deadline != nil {
		task.Deadline = in.Deadline.UTC()
	}
	task.ApplyDefaults(uc.Now().UTC())

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to create task", err)
	}
	return created, nil
}

// StartTask moves a not-started task into the started state.
func (uc *UseCase) StartTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	current, err := uc.owned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task := current.Clone()
	if err := task.Start(uc.Now().UTC()); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to persist task", err)
	}
	return task, nil
}

// CompleteTask toggles completion; see scoring.Resolver.Complete.
func (uc *UseCase) CompleteTask(ctx context.Context, userID, taskID string, scores scoring.CallerScores) (*scoring.Completion, error) {
	return uc.resolver.Complete(ctx, userID, taskID, scores)
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := uc.owned(ctx, userID, taskID); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, taskID)
}

func (uc *UseCase) owned(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

// ensureUser provisions the user row on first use; identities come from the token.
func (uc *UseCase) ensureUser(ctx context.Context, userID string) error {
	_, err := uc.users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	user := domain.NewUser(userID)
	if err := uc.users.Upsert(ctx, user); err != nil {
		return domain.WrapError(domain.ErrCodePersistence, "failed to provision user", err)
	}
	logger.WithRequestID(ctx, uc.logger).Info("user provisioned")
	return nil
}
