package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityProfile   = "profile"
	EntityCondition = "condition"
	EntityBaseline  = "baseline"

	OperationUpdate    = "update"
	OperationCondition = "condition"
	OperationRecompute = "recompute"
)

// Item is a deferred profile write, condition write or baseline recompute, retried by the drain loop.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	// QueuedAt is set on first enqueue and survives requeues; Timestamp orders the queue.
	QueuedAt  time.Time `json:"queued_at"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

// CoalesceKey identifies items that supersede each other. At most one item per key is queued.
func (i Item) CoalesceKey() string {
	if i.UserID == "" {
		return ""
	}
	return i.Entity + ":" + i.UserID
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	if i.QueuedAt.IsZero() {
		i.QueuedAt = i.Timestamp
	}
}
