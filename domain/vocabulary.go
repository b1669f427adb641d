package domain

import "strings"

// Category is the fixed, ordered task-type vocabulary understood by the scorer.
type Category int

const (
	CategoryWork Category = iota
	CategoryPersonal
	CategoryStudy
	CategoryErrands

	CategoryUnknown Category = -1
)

var categoryNames = map[Category]string{
	CategoryWork:     "Work",
	CategoryPersonal: "Personal",
	CategoryStudy:    "Study",
	CategoryErrands:  "Errands",
}

// ParseCategory maps a task type label to its vocabulary index.
// Unknown labels map to CategoryUnknown and are not an error.
func ParseCategory(label string) Category {
	trimmed := strings.TrimSpace(label)
	for c, name := range categoryNames {
		if strings.EqualFold(name, trimmed) {
			return c
		}
	}
	return CategoryUnknown
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Index is the integer feature sent to the scorer.
func (c Category) Index() int {
	return int(c)
}

// Mood is the user's self-reported state.
type Mood string

const (
	MoodTired     Mood = "Tired"
	MoodStressed  Mood = "Stressed"
	MoodNeutral   Mood = "Neutral"
	MoodHappy     Mood = "Happy"
	MoodMotivated Mood = "Motivated"
)

// MoodUnknownIndex is the scorer index for moods outside the vocabulary.
const MoodUnknownIndex = -1

var moodOrder = []Mood{MoodTired, MoodStressed, MoodNeutral, MoodHappy, MoodMotivated}

// ParseMood resolves a label case-insensitively.
func ParseMood(label string) (Mood, bool) {
	trimmed := strings.TrimSpace(label)
	for _, m := range moodOrder {
		if strings.EqualFold(string(m), trimmed) {
			return m, true
		}
	}
	return "", false
}

// Index is the integer feature sent to the scorer.
func (m Mood) Index() int {
	for i, candidate := range moodOrder {
		if candidate == m {
			return i
		}
	}
	return MoodUnknownIndex
}

// TimeOfDay buckets an hour of day.
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
)

// TimeOfDayFor buckets hour into Morning (<12), Afternoon (<18) or Evening.
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour < 12:
		return Morning
	case hour < 18:
		return Afternoon
	default:
		return Evening
	}
}

// Index is 0, 1 or 2 for Morning, Afternoon, Evening.
func (t TimeOfDay) Index() int {
	switch t {
	case Morning:
		return 0
	case Afternoon:
		return 1
	default:
		return 2
	}
}
