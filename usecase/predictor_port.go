package usecase

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

// Predictor is the contract required of the external ETC and scoring services.
// Implementations return PREDICTION_UNAVAILABLE or SCORING_UNAVAILABLE domain
// errors on timeout, non-2xx status or a malformed body.
type Predictor interface {
	PredictETC(ctx context.Context, req domain.ETCRequest) (domain.ETCEstimate, error)
	PredictScore(ctx context.Context, payload domain.ScorePayload) (domain.ScoreForecast, error)
	FetchPredictedScores(ctx context.Context, userID, taskID string) (domain.ScoreForecast, error)
}
