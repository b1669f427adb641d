package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

var fixedNow = time.Date(2024, 6, 19, 15, 0, 0, 0, time.UTC)

type stubAggregator struct {
	calls    int
	baseline domain.Baseline
	updated  bool
	err      error
}

func (s *stubAggregator) Recompute(context.Context, string) (domain.Baseline, bool, error) {
	s.calls++
	return s.baseline, s.updated, s.err
}

func startedTask(id, userID string) *domain.Task {
	started := fixedNow.Add(-45 * time.Minute)
	return &domain.Task{
		ID:        id,
		UserID:    userID,
		Title:     "review pull request",
		Type:      "Work",
		Priority:  domain.PriorityMedium,
		CreatedAt: fixedNow.Add(-2 * time.Hour),
		StartedAt: &started,
		Deadline:  fixedNow.Add(24 * time.Hour),
	}
}

func scorer(productivity, distraction *float64, err error) *fakePredictor {
	return &fakePredictor{
		score: func(domain.ScorePayload) (domain.ScoreForecast, error) {
			if err != nil {
				return domain.ScoreForecast{}, err
			}
			return domain.ScoreForecast{Productivity: productivity, Distraction: distraction}, nil
		},
	}
}

func newTestResolver(tasks *memTasks, users *memUsers, p *fakePredictor, agg BaselineRecomputer, buf *fakeBuffer) *Resolver {
	r := NewResolver(tasks, users, p, agg, buf, nil)
	r.Now = func() time.Time { return fixedNow }
	return r
}

func TestCompleteRequiresStart(t *testing.T) {
	task := startedTask("t1", "u1")
	task.StartedAt = nil
	tasks := newMemTasks(task)
	agg := &stubAggregator{}
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), scorer(nil, nil, nil), agg, &fakeBuffer{})

	_, err := r.Complete(context.Background(), "u1", "t1", CallerScores{})
	if !domain.IsDomainError(err, domain.ErrCodePreconditionFailed) {
		t.Fatalf("expected PRECONDITION_FAILED, got %v", err)
	}
	if tasks.updates != 0 || agg.calls != 0 {
		t.Errorf("expected no writes, got %d updates and %d recomputes", tasks.updates, agg.calls)
	}
	if stored := tasks.get("t1"); stored.Completed || stored.ActualTimeSpent != nil {
		t.Errorf("task changed: %+v", stored)
	}
}

func TestCompleteRejectsOtherOwner(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	r := newTestResolver(tasks, newMemUsers(), scorer(nil, nil, nil), &stubAggregator{}, &fakeBuffer{})

	_, err := r.Complete(context.Background(), "u2", "t1", CallerScores{})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCompleteScoresAndAggregates(t *testing.T) {
	user := domain.NewUser("u1")
	user.CurrentEnergyLevel = 7
	user.CurrentMood = domain.MoodHappy

	tasks := newMemTasks(startedTask("t1", "u1"))
	predictor := scorer(ptr(20), ptr(35), nil)
	agg := &stubAggregator{baseline: domain.Baseline{Productivity: 70, Distraction: 35}, updated: true}
	r := newTestResolver(tasks, newMemUsers(user), predictor, agg, &fakeBuffer{})

	got, err := r.Complete(context.Background(), "u1", "t1", CallerScores{Productivity: ptr(7)})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	stored := tasks.get("t1")
	if !stored.Completed || stored.CompletedAt == nil || !stored.CompletedAt.Equal(fixedNow) {
		t.Fatalf("task not completed: %+v", stored)
	}
	if stored.ActualTimeSpent == nil || *stored.ActualTimeSpent != 45 {
		t.Errorf("expected 45 minutes spent, got %v", stored.ActualTimeSpent)
	}
	if *stored.ProductivityScore != 70 {
		t.Errorf("caller score should win: got %v", *stored.ProductivityScore)
	}
	if *stored.DistractionScore != 35 {
		t.Errorf("distraction should come from the scorer: got %v", *stored.DistractionScore)
	}

	if len(predictor.payloads) != 1 {
		t.Fatalf("expected one scorer call, got %d", len(predictor.payloads))
	}
	p := predictor.payloads[0]
	if p.Energy != 7 || p.Mood != 3 || p.ActivityType != 0 || p.TimeOfDay != 1 || p.DayOfWeek != 3 {
		t.Errorf("unexpected payload %+v", p)
	}

	if agg.calls != 1 || got.Baseline == nil || got.Baseline.Productivity != 70 {
		t.Errorf("expected reported baseline, got %+v after %d calls", got.Baseline, agg.calls)
	}
	if got.Reverted || got.AggregationErr != nil {
		t.Errorf("unexpected completion %+v", got)
	}
}

func TestCompleteSkipsScorerWithBothCallerScores(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	predictor := scorer(ptr(1), ptr(1), nil)
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), predictor, &stubAggregator{}, &fakeBuffer{})

	if _, err := r.Complete(context.Background(), "u1", "t1", CallerScores{Productivity: ptr(10), Distraction: ptr(1)}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(predictor.payloads) != 0 {
		t.Errorf("scorer should not be called, got %d calls", len(predictor.payloads))
	}
	stored := tasks.get("t1")
	if *stored.ProductivityScore != 100 || *stored.DistractionScore != 10 {
		t.Errorf("expected 100/10, got %v/%v", *stored.ProductivityScore, *stored.DistractionScore)
	}
}

func TestCompleteIgnoresOutOfRangeCallerScores(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), scorer(ptr(64), ptr(22), nil), &stubAggregator{}, &fakeBuffer{})

	if _, err := r.Complete(context.Background(), "u1", "t1", CallerScores{Productivity: ptr(11), Distraction: ptr(0)}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	stored := tasks.get("t1")
	if *stored.ProductivityScore != 64 || *stored.DistractionScore != 22 {
		t.Errorf("expected scorer values 64/22, got %v/%v", *stored.ProductivityScore, *stored.DistractionScore)
	}
}

func TestCompleteScorerFailureLeavesFieldsUnset(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	predictor := scorer(nil, nil, domain.NewError(domain.ErrCodeScoringUnavailable, "down"))
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), predictor, &stubAggregator{}, &fakeBuffer{})

	got, err := r.Complete(context.Background(), "u1", "t1", CallerScores{Productivity: ptr(7)})
	if err != nil {
		t.Fatalf("scorer failure must not fail completion: %v", err)
	}
	if *got.Task.ProductivityScore != 70 {
		t.Errorf("expected caller productivity 70, got %v", *got.Task.ProductivityScore)
	}
	if got.Task.DistractionScore != nil {
		t.Errorf("expected nil distraction, got %v", *got.Task.DistractionScore)
	}
}

func TestCompleteTogglesOffKeepingScores(t *testing.T) {
	done := scoredTask("t1", "u1", 80, 20)
	done.StartedAt = &fixedNow
	minutes := 30
	done.ActualTimeSpent = &minutes

	tasks := newMemTasks(done)
	agg := &stubAggregator{}
	predictor := scorer(nil, nil, nil)
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), predictor, agg, &fakeBuffer{})

	got, err := r.Complete(context.Background(), "u1", "t1", CallerScores{Productivity: ptr(2)})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !got.Reverted || got.Baseline != nil {
		t.Errorf("expected a plain revert, got %+v", got)
	}

	stored := tasks.get("t1")
	if stored.Completed || stored.CompletedAt != nil || stored.ActualTimeSpent != nil {
		t.Errorf("completion state not cleared: %+v", stored)
	}
	if *stored.ProductivityScore != 80 || *stored.DistractionScore != 20 {
		t.Errorf("scores should be preserved, got %v/%v", *stored.ProductivityScore, *stored.DistractionScore)
	}
	if agg.calls != 0 || len(predictor.payloads) != 0 {
		t.Errorf("revert must not aggregate or score: %d recomputes, %d scorer calls", agg.calls, len(predictor.payloads))
	}
}

func TestCompleteRecompletePrefersPreviousScores(t *testing.T) {
	task := startedTask("t1", "u1")
	task.ProductivityScore = ptr(80)
	task.DistractionScore = ptr(20)
	tasks := newMemTasks(task)
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), scorer(nil, nil, errors.New("down")), &stubAggregator{}, &fakeBuffer{})

	got, err := r.Complete(context.Background(), "u1", "t1", CallerScores{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if *got.Task.ProductivityScore != 80 || *got.Task.DistractionScore != 20 {
		t.Errorf("expected previous scores, got %v/%v", *got.Task.ProductivityScore, *got.Task.DistractionScore)
	}
}

func TestCompleteAggregationFailureIsDeferred(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	agg := &stubAggregator{err: errors.New("lock timeout")}
	buf := &fakeBuffer{}
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), scorer(ptr(50), ptr(50), nil), agg, buf)

	got, err := r.Complete(context.Background(), "u1", "t1", CallerScores{})
	if err != nil {
		t.Fatalf("aggregation failure must not fail completion: %v", err)
	}
	if !domain.IsDomainError(got.AggregationErr, domain.ErrCodeAggregation) {
		t.Errorf("expected AGGREGATION_FAILURE, got %v", got.AggregationErr)
	}
	if !tasks.get("t1").Completed {
		t.Error("completion should be persisted")
	}
	if len(buf.deferred) != 1 || buf.deferred[0] != "u1" {
		t.Errorf("expected deferred recompute for u1, got %v", buf.deferred)
	}
}

func TestCompletePersistenceFailure(t *testing.T) {
	tasks := newMemTasks(startedTask("t1", "u1"))
	tasks.updateErr = errors.New("disk full")
	agg := &stubAggregator{}
	r := newTestResolver(tasks, newMemUsers(domain.NewUser("u1")), scorer(ptr(50), ptr(50), nil), agg, &fakeBuffer{})

	_, err := r.Complete(context.Background(), "u1", "t1", CallerScores{})
	if !domain.IsDomainError(err, domain.ErrCodePersistence) {
		t.Fatalf("expected PERSISTENCE_FAILURE, got %v", err)
	}
	if agg.calls != 0 {
		t.Error("baseline must not be recomputed after a failed write")
	}
}
