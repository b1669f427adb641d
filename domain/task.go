package domain

import (
	"math"
	"strings"
	"time"
)

// Priority is the user-declared importance of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority normalizes user input, defaulting to Medium.
func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// TaskState is the lifecycle position derived from the task timestamps.
type TaskState string

const (
	StateNotStarted TaskState = "not_started"
	StateStarted    TaskState = "started"
	StateCompleted  TaskState = "completed"
)

const (
	DefaultDeadlineOffset = 24 * time.Hour
	ReminderLeadTime      = 5 * time.Hour
)

// Task represents a user-owned activity item.
type Task struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Priority    Priority          `json:"priority"`
	Deadline    time.Time         `json:"deadline"`
	ReminderAt  time.Time         `json:"reminder_at"`
	StartedAt   *time.Time        `json:"started_at"`
	Completed   bool              `json:"completed"`
	CompletedAt *time.Time        `json:"completed_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	// ActualTimeSpent is in minutes.
	ActualTimeSpent   *int     `json:"actual_time_spent"`
	ProductivityScore *float64 `json:"productivity_score"`
	DistractionScore  *float64 `json:"distraction_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyDefaults fills priority, deadline and reminder for a freshly created task.
func (t *Task) ApplyDefaults(now time.Time) {
	if t == nil {
		return
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Deadline.IsZero() {
		t.Deadline = t.CreatedAt.Add(DefaultDeadlineOffset)
	}
	t.ReminderAt = t.Deadline.Add(-ReminderLeadTime)
}

// State reports the lifecycle position of the task.
func (t *Task) State() TaskState {
	switch {
	case t.Completed:
		return StateCompleted
	case t.StartedAt != nil:
		return StateStarted
	default:
		return StateNotStarted
	}
}

// IsActive reports whether the task has been neither started nor completed.
func (t *Task) IsActive() bool {
	return t != nil && !t.Completed && t.StartedAt == nil
}

// HasScores reports whether both completion scores are present.
func (t *Task) HasScores() bool {
	return t != nil && t.ProductivityScore != nil && t.DistractionScore != nil
}

// EffectiveStart is StartedAt when set, otherwise CreatedAt.
func (t *Task) EffectiveStart() time.Time {
	if t.StartedAt != nil {
		return *t.StartedAt
	}
	return t.CreatedAt
}

// Start moves a not-started task into the started state.
func (t *Task) Start(now time.Time) error {
	if t.Completed {
		return ErrTaskCompleted
	}
	if t.StartedAt != nil {
		return ErrTaskStarted
	}
	started := now
	t.StartedAt = &started
	return nil
}

// Uncomplete reverts a completed task. Scores are kept.
func (t *Task) Uncomplete() {
	t.Completed = false
	t.CompletedAt = nil
	t.ActualTimeSpent = nil
}

// MarkCompleted records completion and the rounded minutes spent since the effective start.
func (t *Task) MarkCompleted(now time.Time) error {
	if t.Completed {
		return ErrTaskCompleted
	}
	if t.StartedAt == nil {
		return ErrTaskNotStarted
	}
	minutes := int(math.Round(now.Sub(t.EffectiveStart()).Minutes()))
	completed := now
	t.Completed = true
	t.CompletedAt = &completed
	t.ActualTimeSpent = &minutes
	return nil
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.ActualTimeSpent = cloneInt(t.ActualTimeSpent)
	c.ProductivityScore = cloneFloat(t.ProductivityScore)
	c.DistractionScore = cloneFloat(t.DistractionScore)
	if t.Metadata != nil {
		c.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
