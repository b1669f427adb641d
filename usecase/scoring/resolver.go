package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
)

// CallerScores are the optional self-assessed scores on a 1..10 scale.
type CallerScores struct {
	Productivity *float64
	Distraction  *float64
}

// scaled returns v×10 when v lies in [1,10], otherwise nil.
func scaled(v *float64) *float64 {
	if v == nil || *v < 1 || *v > 10 {
		return nil
	}
	s := *v * 10
	return &s
}

// BaselineRecomputer is satisfied by Aggregator.
type BaselineRecomputer interface {
	Recompute(ctx context.Context, userID string) (domain.Baseline, bool, error)
}

// Completion is the outcome of a completion toggle.
type Completion struct {
	Task *domain.Task
	// Reverted is true when the call un-completed a completed task.
	Reverted bool
	// Baseline is set when the user's baseline was rewritten.
	Baseline *domain.Baseline
	// AggregationErr reports a baseline failure that did not fail the completion.
	AggregationErr error
}

// Resolver toggles task completion and settles the completion scores.
type Resolver struct {
	tasks      repository.TaskRepository
	users      repository.UserRepository
	predictor  usecase.Predictor
	aggregator BaselineRecomputer
	buffer     usecase.OperationBuffer
	logger     *zap.Logger

	Now func() time.Time
}

func NewResolver(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	predictor usecase.Predictor,
	aggregator BaselineRecomputer,
	buffer usecase.OperationBuffer,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		tasks:      tasks,
		users:      users,
		predictor:  predictor,
		aggregator: aggregator,
		buffer:     buffer,
		logger:     logger,
		Now:        time.Now,
	}
}

// Complete toggles the completion state of taskID on behalf of userID.
//
// A completed task is reverted without touching its scores and without
// re-aggregation. A started task is completed, scored, persisted, and then the
// owner's baseline is recomputed; a baseline failure is returned in
// Completion.AggregationErr rather than as the error result.
func (r *Resolver) Complete(ctx context.Context, userID, taskID string, scores CallerScores) (*Completion, error) {
	log := logger.WithRequestID(ctx, r.logger).With(zap.String("task_id", taskID))

	current, err := r.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, domain.ErrForbidden
	}

	task := current.Clone()
	if task.Completed {
		task.Uncomplete()
		if err := r.tasks.Update(ctx, task); err != nil {
			return nil, domain.WrapError(domain.ErrCodePersistence, "failed to persist task", err)
		}
		log.Info("task completion reverted")
		return &Completion{Task: task, Reverted: true}, nil
	}

	if err := task.MarkCompleted(r.Now().UTC()); err != nil {
		return nil, err
	}
	r.resolveScores(ctx, log, task, scores)

	if err := r.tasks.Update(ctx, task); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "failed to persist task", err)
	}

	completion := &Completion{Task: task}
	if r.aggregator == nil {
		return completion, nil
	}

	baseline, updated, err := r.aggregator.Recompute(ctx, userID)
	if err != nil {
		completion.AggregationErr = domain.WrapError(domain.ErrCodeAggregation, "baseline recompute failed", err)
		log.Error("baseline recompute failed after completion", zap.Error(err))
		if r.buffer != nil {
			if bufErr := r.buffer.DeferBaseline(ctx, userID); bufErr != nil {
				log.Error("failed to defer baseline recompute", zap.Error(bufErr))
			}
		}
		return completion, nil
	}
	if updated {
		completion.Baseline = &baseline
	}
	return completion, nil
}

// resolveScores applies, per field, the caller score if valid, then the
// scorer's answer, then whatever the task already held. On a first completion
// the held value is nil, so a scorer failure leaves the field null. On a
// re-completion it is the score from the earlier completion, which un-complete
// keeps, so a scorer outage cannot erase a score the baseline already counted.
func (r *Resolver) resolveScores(ctx context.Context, log *zap.Logger, task *domain.Task, scores CallerScores) {
	productivity := scaled(scores.Productivity)
	distraction := scaled(scores.Distraction)

	if (productivity == nil || distraction == nil) && r.predictor != nil {
		forecast, err := r.predictor.PredictScore(ctx, completionPayload(task, r.scoringUser(ctx, log, task.UserID)))
		if err != nil {
			log.Warn("completion scoring unavailable", zap.String("endpoint", "score"), zap.Error(err))
		} else {
			if productivity == nil {
				productivity = forecast.Productivity
			}
			if distraction == nil {
				distraction = forecast.Distraction
			}
		}
	}

	if productivity != nil {
		task.ProductivityScore = productivity
	}
	if distraction != nil {
		task.DistractionScore = distraction
	}
}

// scoringUser loads the owner for energy and mood, falling back to defaults.
func (r *Resolver) scoringUser(ctx context.Context, log *zap.Logger, userID string) *domain.User {
	if r.users != nil {
		user, err := r.users.GetByID(ctx, userID)
		if err == nil {
			return user
		}
		log.Warn("user lookup failed, scoring with default condition", zap.Error(err))
	}
	return domain.NewUser(userID)
}
