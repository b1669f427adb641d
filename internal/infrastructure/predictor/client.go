package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/config"
)

const (
	keyFormattedETC = "Formatted ETC"
	keyETCMinutes   = "Estimated Time of Completion (in minutes)"

	minScore = 0
	maxScore = 100
)

var errMalformed = errors.New("malformed response")

// Client talks to the ETC predictor and the scoring service over JSON/HTTP.
// Every call is a single attempt bounded by the configured timeout.
type Client struct {
	http        *fasthttp.Client
	etcURL      string
	scoreURL    string
	forecastURL string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewClient(cfg config.PredictorConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                     "taskpulse-predictor",
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
			MaxIdleConnDuration:      30 * time.Second,
			NoDefaultUserAgentHeader: true,
		},
		etcURL:      cfg.ETCURL,
		scoreURL:    cfg.ScoreURL,
		forecastURL: cfg.ForecastURL,
		timeout:     timeout,
		logger:      logger,
	}
}

type etcRequest struct {
	UserID            string  `json:"user_id"`
	Type              string  `json:"type"`
	Priority          string  `json:"priority"`
	DeadlineGap       float64 `json:"deadline_gap"`
	DayOfWeek         int     `json:"dayOfWeek"`
	HourOfDay         int     `json:"hourOfDay"`
	IsWeekend         bool    `json:"isWeekend"`
	TimeOfDay         string  `json:"timeOfDay"`
	HasDescription    bool    `json:"hasDescription"`
	TitleLength       int     `json:"titleLength"`
	Urgency           string  `json:"urgency"`
	TaskLength        string  `json:"taskLength"`
	ProductivityScore int     `json:"productivityScore"`
	DistractionScore  int     `json:"distractionScore"`
}

type scoreResponse struct {
	ProductivityScore *float64 `json:"productivity_score"`
	DistractionScore  *float64 `json:"distraction_score"`
}

type forecastRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// PredictETC asks the ETC service for a completion estimate.
func (c *Client) PredictETC(ctx context.Context, req domain.ETCRequest) (domain.ETCEstimate, error) {
	f := req.Features
	body := etcRequest{
		UserID:            req.UserID,
		Type:              req.TaskType,
		Priority:          string(req.Priority),
		DeadlineGap:       f.DeadlineGapHours,
		DayOfWeek:         f.DayOfWeek,
		HourOfDay:         f.HourOfDay,
		IsWeekend:         f.IsWeekend,
		TimeOfDay:         string(f.TimeOfDay),
		HasDescription:    f.HasDescription,
		TitleLength:       f.TitleLength,
		Urgency:           string(f.Urgency),
		TaskLength:        string(f.TaskLength),
		ProductivityScore: req.Baseline.Productivity,
		DistractionScore:  req.Baseline.Distraction,
	}

	var raw map[string]json.RawMessage
	if err := c.post(ctx, c.etcURL, body, &raw); err != nil {
		return domain.ETCEstimate{}, domain.WrapError(domain.ErrCodePredictionUnavailable, "etc prediction unavailable", err)
	}

	estimate, err := decodeETC(raw)
	if err != nil {
		return domain.ETCEstimate{}, domain.WrapError(domain.ErrCodePredictionUnavailable, "etc prediction unavailable", err)
	}
	return estimate, nil
}

// PredictScore asks the scoring service for completion-time scores.
func (c *Client) PredictScore(ctx context.Context, payload domain.ScorePayload) (domain.ScoreForecast, error) {
	forecast, err := c.scores(ctx, c.scoreURL, payload)
	if err != nil {
		return domain.ScoreForecast{}, domain.WrapError(domain.ErrCodeScoringUnavailable, "completion scoring unavailable", err)
	}
	return forecast, nil
}

// FetchPredictedScores asks the scoring service for an advisory forecast of an active task.
func (c *Client) FetchPredictedScores(ctx context.Context, userID, taskID string) (domain.ScoreForecast, error) {
	forecast, err := c.scores(ctx, c.forecastURL, forecastRequest{UserID: userID, TaskID: taskID})
	if err != nil {
		return domain.ScoreForecast{}, domain.WrapError(domain.ErrCodeScoringUnavailable, "score forecast unavailable", err)
	}
	return forecast, nil
}

func (c *Client) scores(ctx context.Context, url string, body any) (domain.ScoreForecast, error) {
	var resp scoreResponse
	if err := c.post(ctx, url, body, &resp); err != nil {
		return domain.ScoreForecast{}, err
	}
	if !validScore(resp.ProductivityScore) || !validScore(resp.DistractionScore) {
		return domain.ScoreForecast{}, fmt.Errorf("predictor: %w: score out of range", errMalformed)
	}
	return domain.ScoreForecast{
		Productivity: resp.ProductivityScore,
		Distraction:  resp.DistractionScore,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("predictor: marshal request: %w", err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("predictor: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("predictor: %w", context.DeadlineExceeded)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	start := time.Now()
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("predictor: send request: %w", err)
	}

	status := resp.StatusCode()
	c.logger.Debug("predictor call",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))

	if status < 200 || status >= 300 {
		return fmt.Errorf("predictor: API error (status %d): %s", status, string(resp.Body()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("predictor: %w: %v", errMalformed, err)
	}
	return nil
}

func decodeETC(raw map[string]json.RawMessage) (domain.ETCEstimate, error) {
	formattedRaw, ok := raw[keyFormattedETC]
	if !ok {
		return domain.ETCEstimate{}, fmt.Errorf("predictor: %w: missing %q", errMalformed, keyFormattedETC)
	}
	minutesRaw, ok := raw[keyETCMinutes]
	if !ok {
		return domain.ETCEstimate{}, fmt.Errorf("predictor: %w: missing %q", errMalformed, keyETCMinutes)
	}

	var formatted string
	if err := json.Unmarshal(formattedRaw, &formatted); err != nil {
		return domain.ETCEstimate{}, fmt.Errorf("predictor: %w: %q: %v", errMalformed, keyFormattedETC, err)
	}
	var minutes float64
	if err := json.Unmarshal(minutesRaw, &minutes); err != nil {
		return domain.ETCEstimate{}, fmt.Errorf("predictor: %w: %q: %v", errMalformed, keyETCMinutes, err)
	}
	return domain.ETCEstimate{Formatted: formatted, Minutes: &minutes}, nil
}

func validScore(v *float64) bool {
	return v == nil || (*v >= minScore && *v <= maxScore)
}
