package domain

import (
	"encoding/json"
	"time"
)

// ActivityType enumerates self-reported log entries.
type ActivityType string

const (
	ActivityMoodUpdate    ActivityType = "moodUpdate"
	ActivityEnergyUpdate  ActivityType = "energyUpdate"
	ActivityCoachFeedback ActivityType = "coachFeedback"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityMoodUpdate, ActivityEnergyUpdate, ActivityCoachFeedback:
		return true
	}
	return false
}

// ActivityLog is an append-only record of mood, energy or coaching events.
type ActivityLog struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      ActivityType    `json:"type"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ActivityMeta is the subset of meta fields that update the user record.
type ActivityMeta struct {
	Mood   string   `json:"mood,omitempty"`
	Energy *float64 `json:"energy,omitempty"`
}

// DecodeMeta parses the known fields of Meta. Unknown fields are ignored.
func (l *ActivityLog) DecodeMeta() ActivityMeta {
	var meta ActivityMeta
	if l == nil || len(l.Meta) == 0 {
		return meta
	}
	_ = json.Unmarshal(l.Meta, &meta)
	return meta
}
