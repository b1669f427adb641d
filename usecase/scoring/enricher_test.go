package scoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

func activeTask(id string) *domain.Task {
	return &domain.Task{
		ID:        id,
		UserID:    "u1",
		Title:     "task " + id,
		Type:      "Work",
		Priority:  domain.PriorityLow,
		CreatedAt: fixedNow.Add(-time.Hour),
		Deadline:  fixedNow.Add(20 * time.Hour),
	}
}

func TestEnrichPreservesOrderAndAbsorbsFailures(t *testing.T) {
	var etcCalls atomic.Int32
	predictor := &fakePredictor{
		etc: func(req domain.ETCRequest) (domain.ETCEstimate, error) {
			etcCalls.Add(1)
			if req.TaskID == "b" {
				return domain.ETCEstimate{}, domain.NewError(domain.ErrCodePredictionUnavailable, "timeout")
			}
			if req.Baseline.Productivity != 65 || req.Features.Urgency != domain.UrgencySoon {
				t.Errorf("unexpected request %+v", req)
			}
			minutes := 90.0
			return domain.ETCEstimate{Formatted: "1h 30m", Minutes: &minutes}, nil
		},
		forecast: func(_, taskID string) (domain.ScoreForecast, error) {
			return domain.ScoreForecast{Productivity: ptr(55), Distraction: ptr(30)}, nil
		},
	}
	e := NewEnricher(predictor, 2, nil)
	e.Now = func() time.Time { return fixedNow }

	user := domain.NewUser("u1")
	user.BaselineProductivityScore = 65

	started := activeTask("s")
	started.StartedAt = &fixedNow
	tasks := []*domain.Task{activeTask("a"), activeTask("b"), started, activeTask("c")}

	got := e.Enrich(context.Background(), user, tasks)
	if len(got) != len(tasks) {
		t.Fatalf("expected %d entries, got %d", len(tasks), len(got))
	}
	for i, entry := range got {
		if entry.Task != tasks[i] {
			t.Errorf("entry %d out of order", i)
		}
	}

	for _, i := range []int{0, 3} {
		p := got[i].Prediction
		if p == nil || p.ETC != "1h 30m" || *p.ETCMinutes != 90 || *p.PredictedProductivityScore != 55 || *p.PredictedDistractionScore != 30 {
			t.Errorf("entry %d: unexpected prediction %+v", i, p)
		}
	}

	failed := got[1].Prediction
	if failed == nil || failed.ETC != domain.ETCUnavailable || failed.ETCMinutes != nil ||
		failed.PredictedProductivityScore != nil || failed.PredictedDistractionScore != nil {
		t.Errorf("expected sentinel for failed task, got %+v", failed)
	}
	if got[2].Prediction != nil {
		t.Errorf("started task should not be enriched, got %+v", got[2].Prediction)
	}
	if etcCalls.Load() != 3 {
		t.Errorf("expected 3 etc calls, got %d", etcCalls.Load())
	}
}

func TestEnrichForecastFailureYieldsSentinel(t *testing.T) {
	predictor := &fakePredictor{
		etc: func(domain.ETCRequest) (domain.ETCEstimate, error) {
			return domain.ETCEstimate{Formatted: "20m", Minutes: ptr(20)}, nil
		},
		forecast: func(string, string) (domain.ScoreForecast, error) {
			return domain.ScoreForecast{}, errors.New("connection refused")
		},
	}
	e := NewEnricher(predictor, 0, nil)
	e.Now = func() time.Time { return fixedNow }

	got := e.Enrich(context.Background(), nil, []*domain.Task{activeTask("a")})
	p := got[0].Prediction
	if p == nil || p.ETC != domain.ETCUnavailable || p.ETCMinutes != nil {
		t.Errorf("expected all-sentinel prediction, got %+v", p)
	}
}

func TestEnrichWithoutPredictor(t *testing.T) {
	e := NewEnricher(nil, 4, nil)
	got := e.Enrich(context.Background(), domain.NewUser("u1"), []*domain.Task{activeTask("a")})
	if got[0].Prediction == nil || got[0].Prediction.ETC != domain.ETCUnavailable {
		t.Errorf("expected sentinel without predictor, got %+v", got[0].Prediction)
	}
	if len(e.Enrich(context.Background(), nil, nil)) != 0 {
		t.Error("expected empty result for no tasks")
	}
}
