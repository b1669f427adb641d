package postgres

import (
	"encoding/json"
	"time"
)

// marshalMap stores empty metadata as NULL.
func marshalMap(data map[string]string) []byte {
	if len(data) == 0 {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}

func unmarshalMap(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}

// nullTime lets the column default (NOW()) apply for zero timestamps.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

// optionalLimit binds to LIMIT; NULL means no limit.
func optionalLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	l := clampLimit(limit)
	return &l
}
