package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/usecase"
)

const defaultEnrichConcurrency = 8

// Prediction is the advisory forecast attached to an active task.
type Prediction struct {
	ETC                        string
	ETCMinutes                 *float64
	PredictedProductivityScore *float64
	PredictedDistractionScore  *float64
}

// unavailablePrediction is substituted for a task whose enrichment failed.
func unavailablePrediction() *Prediction {
	estimate := domain.UnavailableETC()
	return &Prediction{ETC: estimate.Formatted, ETCMinutes: estimate.Minutes}
}

// EnrichedTask pairs a task with its prediction. Prediction is nil for tasks
// that are started or completed.
type EnrichedTask struct {
	Task       *domain.Task
	Prediction *Prediction
}

// Enricher attaches ETC and score forecasts to active tasks.
type Enricher struct {
	predictor   usecase.Predictor
	concurrency int
	logger      *zap.Logger

	Now func() time.Time
}

func NewEnricher(predictor usecase.Predictor, concurrency int, logger *zap.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		predictor:   predictor,
		concurrency: concurrency,
		logger:      logger,
		Now:         time.Now,
	}
}

// Enrich returns one entry per input task in input order. Predictor failures
// are absorbed per task and never fail the call.
func (e *Enricher) Enrich(ctx context.Context, user *domain.User, tasks []*domain.Task) []EnrichedTask {
	out := make([]EnrichedTask, len(tasks))
	if len(tasks) == 0 {
		return out
	}

	baseline := domain.NewUser("").Baseline()
	userID := ""
	if user != nil {
		baseline = user.Baseline()
		userID = user.ID
	}
	now := e.Now().UTC()
	log := logger.WithRequestID(ctx, e.logger)

	// Workers never return errors, so Wait only joins them.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)

	for i, task := range tasks {
		out[i].Task = task
		if !task.IsActive() || e.predictor == nil {
			continue
		}
		i, task := i, task
		group.Go(func() error {
			out[i].Prediction = e.predict(groupCtx, log, userID, baseline, task, now)
			return nil
		})
	}
	_ = group.Wait()

	for i, task := range tasks {
		if task.IsActive() && out[i].Prediction == nil {
			out[i].Prediction = unavailablePrediction()
		}
	}
	return out
}

func (e *Enricher) predict(ctx context.Context, log *zap.Logger, userID string, baseline domain.Baseline, task *domain.Task, now time.Time) *Prediction {
	estimate, err := e.predictor.PredictETC(ctx, domain.ETCRequest{
		UserID:   userID,
		TaskID:   task.ID,
		TaskType: task.Type,
		Priority: task.Priority,
		Features: DeriveFeatures(task, now, now),
		Baseline: baseline,
	})
	if err != nil {
		log.Warn("etc prediction failed", zap.String("task_id", task.ID), zap.String("endpoint", "etc"), zap.Error(err))
		return unavailablePrediction()
	}

	forecast, err := e.predictor.FetchPredictedScores(ctx, userID, task.ID)
	if err != nil {
		log.Warn("score forecast failed", zap.String("task_id", task.ID), zap.String("endpoint", "forecast"), zap.Error(err))
		return unavailablePrediction()
	}

	return &Prediction{
		ETC:                        estimate.Formatted,
		ETCMinutes:                 estimate.Minutes,
		PredictedProductivityScore: forecast.Productivity,
		PredictedDistractionScore:  forecast.Distraction,
	}
}
