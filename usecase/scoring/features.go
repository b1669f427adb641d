package scoring

import (
	"strings"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

// DeriveFeatures computes the predictor features of task.
//
// reference is the instant the work is considered to begin (now for listing,
// the effective start for completion scoring) and drives the calendar features.
// now is only used for the time left until the deadline. The deadline gap is
// measured from the task's effective start, which is its creation time until
// the task is started.
func DeriveFeatures(task *domain.Task, reference, now time.Time) domain.Features {
	ref := reference.UTC()
	hour := ref.Hour()
	day := ref.Weekday()
	words := len(strings.Fields(task.Title))
	hoursLeft := task.Deadline.Sub(now).Hours()

	return domain.Features{
		DeadlineGapHours:    task.Deadline.Sub(task.EffectiveStart()).Hours(),
		DayOfWeek:           int(day),
		HourOfDay:           hour,
		IsWeekend:           day == time.Saturday || day == time.Sunday,
		TimeOfDay:           domain.TimeOfDayFor(hour),
		HasDescription:      strings.TrimSpace(task.Description) != "",
		TitleLength:         words,
		TaskLength:          domain.TaskLengthFor(words),
		TimeToDeadlineHours: hoursLeft,
		Urgency:             domain.UrgencyFor(hoursLeft),
	}
}

// TODO: replace with real distraction and idle telemetry once the client reports it.
const placeholderSignal = 0

// completionPayload builds the scorer input for a task that just completed.
func completionPayload(task *domain.Task, user *domain.User) domain.ScorePayload {
	start := task.EffectiveStart().UTC()
	return domain.ScorePayload{
		TimeOfDay:      domain.TimeOfDayFor(start.Hour()).Index(),
		DayOfWeek:      int(start.Weekday()),
		ActivityType:   domain.ParseCategory(task.Type).Index(),
		CompletedTasks: 1,
		Distractions:   placeholderSignal,
		IdleTime:       placeholderSignal,
		Energy:         user.CurrentEnergyLevel,
		Mood:           user.CurrentMood.Index(),
	}
}
