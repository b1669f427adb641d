package scoring

import (
	"testing"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

func TestDeriveFeatures(t *testing.T) {
	// Saturday 2024-06-15 09:30 UTC
	now := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	created := now.Add(-2 * time.Hour)
	task := &domain.Task{
		Title:       "  write quarterly report draft  ",
		Description: " \n ",
		CreatedAt:   created,
		Deadline:    now.Add(30 * time.Hour),
	}

	f := DeriveFeatures(task, now, now)

	if f.DeadlineGapHours != 32 {
		t.Errorf("expected deadline gap 32h from creation, got %v", f.DeadlineGapHours)
	}
	if f.DayOfWeek != int(time.Saturday) || !f.IsWeekend {
		t.Errorf("expected Saturday weekend, got day=%d weekend=%v", f.DayOfWeek, f.IsWeekend)
	}
	if f.HourOfDay != 9 || f.TimeOfDay != domain.Morning {
		t.Errorf("expected 9h Morning, got %d %s", f.HourOfDay, f.TimeOfDay)
	}
	if f.HasDescription {
		t.Error("whitespace description should not count")
	}
	if f.TitleLength != 4 || f.TaskLength != domain.TaskLengthMedium {
		t.Errorf("expected 4 words Medium, got %d %s", f.TitleLength, f.TaskLength)
	}
	if f.TimeToDeadlineHours != 30 || f.Urgency != domain.UrgencyLow {
		t.Errorf("expected 30h Low, got %v %s", f.TimeToDeadlineHours, f.Urgency)
	}
}

func TestDeriveFeaturesUsesStartOnceStarted(t *testing.T) {
	now := time.Date(2024, 6, 17, 20, 0, 0, 0, time.UTC)
	started := now.Add(-time.Hour)
	task := &domain.Task{
		Title:     "a",
		CreatedAt: now.Add(-10 * time.Hour),
		StartedAt: &started,
		Deadline:  now.Add(5 * time.Hour),
	}

	f := DeriveFeatures(task, started, now)
	if f.DeadlineGapHours != 6 {
		t.Errorf("expected gap 6h from start, got %v", f.DeadlineGapHours)
	}
	if f.HourOfDay != 19 || f.TimeOfDay != domain.Evening || f.IsWeekend {
		t.Errorf("unexpected calendar features %+v", f)
	}
	if f.Urgency != domain.UrgencyUrgent {
		t.Errorf("expected Urgent, got %s", f.Urgency)
	}
}

func TestDeriveFeaturesConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 01:00 Monday local is 22:00 Sunday UTC
	ref := time.Date(2024, 6, 17, 1, 0, 0, 0, loc)
	task := &domain.Task{Title: "x", CreatedAt: ref, Deadline: ref.Add(time.Hour)}

	f := DeriveFeatures(task, ref, ref)
	if f.DayOfWeek != int(time.Sunday) || f.HourOfDay != 22 {
		t.Errorf("expected Sunday 22h UTC, got day=%d hour=%d", f.DayOfWeek, f.HourOfDay)
	}
}

func TestUrgencyBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		hours float64
		want  domain.Urgency
	}{
		{11.99, domain.UrgencyUrgent},
		{12.0, domain.UrgencySoon},
		{23.99, domain.UrgencySoon},
		{24.0, domain.UrgencyLow},
		{-1, domain.UrgencyUrgent},
	}
	for _, tt := range tests {
		deadline := now.Add(time.Duration(tt.hours * float64(time.Hour)))
		task := &domain.Task{Title: "t", CreatedAt: now, Deadline: deadline}
		if got := DeriveFeatures(task, now, now).Urgency; got != tt.want {
			t.Errorf("%.2fh: expected %s, got %s", tt.hours, tt.want, got)
		}
	}
}

func TestTaskLengthBoundaries(t *testing.T) {
	tests := []struct {
		title string
		want  domain.TaskLength
	}{
		{"one two", domain.TaskLengthShort},
		{"one two three", domain.TaskLengthMedium},
		{"one two three four five", domain.TaskLengthMedium},
		{"one two three four five six", domain.TaskLengthLong},
	}
	now := time.Now()
	for _, tt := range tests {
		task := &domain.Task{Title: tt.title, CreatedAt: now, Deadline: now}
		if got := DeriveFeatures(task, now, now).TaskLength; got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.title, tt.want, got)
		}
	}
}

func TestCompletionPayload(t *testing.T) {
	// Wednesday 14:10 UTC
	started := time.Date(2024, 6, 19, 14, 10, 0, 0, time.UTC)
	task := &domain.Task{Type: "study", CreatedAt: started.Add(-time.Hour), StartedAt: &started}
	user := domain.NewUser("u1")
	user.CurrentEnergyLevel = 8
	user.CurrentMood = domain.MoodMotivated

	p := completionPayload(task, user)
	want := domain.ScorePayload{
		TimeOfDay:      1,
		DayOfWeek:      3,
		ActivityType:   2,
		CompletedTasks: 1,
		Energy:         8,
		Mood:           4,
	}
	if p != want {
		t.Fatalf("expected %+v, got %+v", want, p)
	}

	task.Type = "Gardening"
	if got := completionPayload(task, user).ActivityType; got != -1 {
		t.Errorf("unknown category should map to -1, got %d", got)
	}
}
