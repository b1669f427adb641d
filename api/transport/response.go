package transport

import (
	"encoding/json"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/usecase/scoring"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// TaskResponse is a task plus, for active tasks, its prediction fields.
type TaskResponse struct {
	*domain.Task
	State                      domain.TaskState `json:"state"`
	ETC                        *string          `json:"etc"`
	ETCMinutes                 *float64         `json:"etc_minutes"`
	PredictedProductivityScore *float64         `json:"predictedProductivityScore"`
	PredictedDistractionScore  *float64         `json:"predictedDistractionScore"`
	Enriched                   bool             `json:"enriched"`
}

func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{Task: task, State: task.State()}
}

// NewEnrichedTaskResponses keeps input order and length.
func NewEnrichedTaskResponses(items []scoring.EnrichedTask) []TaskResponse {
	out := make([]TaskResponse, len(items))
	for i, item := range items {
		out[i] = NewTaskResponse(item.Task)
		if p := item.Prediction; p != nil {
			etc := p.ETC
			out[i].ETC = &etc
			out[i].ETCMinutes = p.ETCMinutes
			out[i].PredictedProductivityScore = p.PredictedProductivityScore
			out[i].PredictedDistractionScore = p.PredictedDistractionScore
			out[i].Enriched = true
		}
	}
	return out
}

// BaselineReport describes what happened to the owner's baseline after a completion.
type BaselineReport struct {
	Updated      bool   `json:"updated"`
	Productivity *int   `json:"productivity,omitempty"`
	Distraction  *int   `json:"distraction,omitempty"`
	Error        string `json:"error,omitempty"`
}

type CompletionResponse struct {
	Task     TaskResponse    `json:"task"`
	Reverted bool            `json:"reverted"`
	Baseline *BaselineReport `json:"baseline,omitempty"`
}

func NewCompletionResponse(c *scoring.Completion) CompletionResponse {
	resp := CompletionResponse{
		Task:     NewTaskResponse(c.Task),
		Reverted: c.Reverted,
	}
	if c.Reverted {
		return resp
	}

	report := &BaselineReport{}
	if c.Baseline != nil {
		report.Updated = true
		report.Productivity = &c.Baseline.Productivity
		report.Distraction = &c.Baseline.Distraction
	}
	if c.AggregationErr != nil {
		report.Error = c.AggregationErr.Error()
	}
	resp.Baseline = report
	return resp
}
