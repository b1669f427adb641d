package scoring

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
)

// ComputeBaseline averages the scores of tasks that are completed and carry
// both scores, rounding each mean to the nearest integer. ok is false when no
// task qualifies.
func ComputeBaseline(tasks []domain.Task) (baseline domain.Baseline, ok bool) {
	var (
		productivity, distraction float64
		count                     int
	)
	for i := range tasks {
		t := &tasks[i]
		if !t.Completed || !t.HasScores() {
			continue
		}
		productivity += *t.ProductivityScore
		distraction += *t.DistractionScore
		count++
	}
	if count == 0 {
		return domain.Baseline{}, false
	}
	return domain.Baseline{
		Productivity: int(math.Round(productivity / float64(count))),
		Distraction:  int(math.Round(distraction / float64(count))),
	}, true
}

// Aggregator recomputes a user's baseline from all scored completions.
type Aggregator struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	locker usecase.UserLocker
	logger *zap.Logger
}

func NewAggregator(tasks repository.TaskRepository, users repository.UserRepository, locker usecase.UserLocker, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		tasks:  tasks,
		users:  users,
		locker: locker,
		logger: logger,
	}
}

// Recompute reads, aggregates and writes the baseline under the user's lock.
// When no task qualifies the stored baseline is left as is and updated is false.
func (a *Aggregator) Recompute(ctx context.Context, userID string) (baseline domain.Baseline, updated bool, err error) {
	if a.locker != nil {
		release, err := a.locker.Lock(ctx, userID)
		if err != nil {
			return domain.Baseline{}, false, fmt.Errorf("lock user %s: %w", userID, err)
		}
		defer release()
	}

	scored, err := a.tasks.ListScored(ctx, userID)
	if err != nil {
		return domain.Baseline{}, false, fmt.Errorf("list scored tasks: %w", err)
	}

	baseline, ok := ComputeBaseline(scored)
	if !ok {
		a.logger.Debug("no scored completions, baseline unchanged", zap.String("user_id", userID))
		return domain.Baseline{}, false, nil
	}

	if err := a.users.UpdateBaseline(ctx, userID, baseline); err != nil {
		return domain.Baseline{}, false, fmt.Errorf("write baseline: %w", err)
	}

	a.logger.Info("baseline recomputed",
		zap.String("user_id", userID),
		zap.Int("samples", len(scored)),
		zap.Int("productivity", baseline.Productivity),
		zap.Int("distraction", baseline.Distraction))
	return baseline, true, nil
}
