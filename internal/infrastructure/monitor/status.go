package monitor

import "time"

type Status struct {
	Storage       bool      `json:"storage"`
	StorageDriver string    `json:"storage_driver"`
	Redis         bool      `json:"redis"`
	RedisRequired bool      `json:"redis_required"`
	Buffer        bool      `json:"buffer"`
	BufferSize    int       `json:"buffer_size"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether every required dependency answered the last probe.
func (s Status) Healthy() bool {
	return s.Storage && (s.Redis || !s.RedisRequired)
}
