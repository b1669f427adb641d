package domain

// ETCUnavailable is the formatted ETC shown when no estimate could be obtained.
const ETCUnavailable = "ETC unavailable"

// Urgency buckets the hours left until the deadline.
type Urgency string

const (
	UrgencyUrgent Urgency = "Urgent"
	UrgencySoon   Urgency = "Soon"
	UrgencyLow    Urgency = "Low"
)

// UrgencyFor is Urgent below 12h, Soon below 24h and Low otherwise.
func UrgencyFor(hoursLeft float64) Urgency {
	switch {
	case hoursLeft < 12:
		return UrgencyUrgent
	case hoursLeft < 24:
		return UrgencySoon
	default:
		return UrgencyLow
	}
}

// TaskLength buckets the number of words in a task title.
type TaskLength string

const (
	TaskLengthShort  TaskLength = "Short"
	TaskLengthMedium TaskLength = "Medium"
	TaskLengthLong   TaskLength = "Long"
)

// TaskLengthFor is Short below 3 words, Medium below 6 and Long otherwise.
func TaskLengthFor(words int) TaskLength {
	switch {
	case words < 3:
		return TaskLengthShort
	case words < 6:
		return TaskLengthMedium
	default:
		return TaskLengthLong
	}
}

// Features is the immutable feature set derived from a task at a reference instant.
type Features struct {
	DeadlineGapHours    float64    `json:"deadline_gap"`
	DayOfWeek           int        `json:"day_of_week"`
	HourOfDay           int        `json:"hour_of_day"`
	IsWeekend           bool       `json:"is_weekend"`
	TimeOfDay           TimeOfDay  `json:"time_of_day"`
	HasDescription      bool       `json:"has_description"`
	TitleLength         int        `json:"title_length"`
	TaskLength          TaskLength `json:"task_length"`
	TimeToDeadlineHours float64    `json:"time_to_deadline"`
	Urgency             Urgency    `json:"urgency"`
}

// ETCRequest carries everything the ETC predictor needs for one task.
type ETCRequest struct {
	UserID   string
	TaskID   string
	TaskType string
	Priority Priority
	Features Features
	Baseline Baseline
}

// ETCEstimate is the predictor's answer.
type ETCEstimate struct {
	Formatted string
	Minutes   *float64
}

// UnavailableETC is the sentinel estimate substituted on predictor failure.
func UnavailableETC() ETCEstimate {
	return ETCEstimate{Formatted: ETCUnavailable}
}

// ScorePayload is the integer-indexed feature vector sent to the completion scorer.
type ScorePayload struct {
	TimeOfDay      int `json:"timeOfDay"`
	DayOfWeek      int `json:"dayOfWeek"`
	ActivityType   int `json:"activity_type"`
	CompletedTasks int `json:"completedTasks"`
	Distractions   int `json:"distractions"`
	IdleTime       int `json:"idleTime"`
	Energy         int `json:"energy"`
	Mood           int `json:"mood"`
}

// ScoreForecast holds scorer output; either field may be missing.
type ScoreForecast struct {
	Productivity *float64
	Distraction  *float64
}
