package scoring

import (
	"context"
	"sync"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

type memTasks struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	updateErr error
	scoredErr error
	updates   int
}

func newMemTasks(tasks ...*domain.Task) *memTasks {
	m := &memTasks{tasks: make(map[string]*domain.Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t.Clone()
	}
	return m
}

func (m *memTasks) get(id string) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Clone()
}

func (m *memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (m *memTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if filter.UserID == "" || t.UserID == filter.UserID {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (m *memTasks) ListScored(_ context.Context, userID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scoredErr != nil {
		return nil, m.scoredErr
	}
	var out []domain.Task
	for _, t := range m.tasks {
		if t.UserID == userID && t.Completed && t.HasScores() {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (m *memTasks) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task.Clone()
	return task, nil
}

func (m *memTasks) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	m.updates++
	m.tasks[task.ID] = task.Clone()
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

type memUsers struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	baselineErr error
	getErr      error
	writes      int
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{users: make(map[string]*domain.User)}
	for _, u := range users {
		c := *u
		m.users[u.ID] = &c
	}
	return m
}

func (m *memUsers) get(id string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *m.users[id]
	return &c
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) Upsert(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memUsers) UpdateBaseline(_ context.Context, id string, b domain.Baseline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baselineErr != nil {
		return m.baselineErr
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	m.writes++
	u.BaselineProductivityScore = b.Productivity
	u.BaselineDistractionScore = b.Distraction
	return nil
}

func (m *memUsers) UpdateCondition(_ context.Context, id string, energy int, mood domain.Mood) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.CurrentEnergyLevel = energy
	u.CurrentMood = mood
	return nil
}

type fakePredictor struct {
	mu       sync.Mutex
	etc      func(domain.ETCRequest) (domain.ETCEstimate, error)
	score    func(domain.ScorePayload) (domain.ScoreForecast, error)
	forecast func(userID, taskID string) (domain.ScoreForecast, error)
	payloads []domain.ScorePayload
}

func (f *fakePredictor) PredictETC(_ context.Context, req domain.ETCRequest) (domain.ETCEstimate, error) {
	return f.etc(req)
}

func (f *fakePredictor) PredictScore(_ context.Context, payload domain.ScorePayload) (domain.ScoreForecast, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return f.score(payload)
}

func (f *fakePredictor) FetchPredictedScores(_ context.Context, userID, taskID string) (domain.ScoreForecast, error) {
	return f.forecast(userID, taskID)
}

type fakeBuffer struct {
	deferred []string
}

func (f *fakeBuffer) BufferProfile(context.Context, string, *domain.User) error { return nil }

func (f *fakeBuffer) DeferBaseline(_ context.Context, userID string) error {
	f.deferred = append(f.deferred, userID)
	return nil
}

func ptr(v float64) *float64 { return &v }
