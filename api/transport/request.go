package transport

import "encoding/json"

type ProfileUpdateRequest struct {
	Email  *string           `json:"email"`
	Role   *string           `json:"role"`
	Status *string           `json:"status"`
	Meta   map[string]string `json:"metadata"`
}

type TaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Priority    string            `json:"priority"`
	Deadline    string            `json:"deadline"`
	Metadata    map[string]string `json:"metadata"`
}

// CompleteTaskRequest carries optional self-assessed scores on a 1..10 scale.
type CompleteTaskRequest struct {
	ProductivityScore *float64 `json:"productivityScore"`
	DistractionScore  *float64 `json:"distractionScore"`
}

type ActivityRequest struct {
	Type string          `json:"type"`
	Meta json.RawMessage `json:"meta"`
}
