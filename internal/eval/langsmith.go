package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Aisuko/rp-needle/internal/results"
)

// DefaultLangSmithURL is the hosted LangSmith API endpoint.
const DefaultLangSmithURL = "https://api.smith.langchain.com/api/v1"

// langsmithMaxResponse caps feedback/run response bodies (1 MB).
const langsmithMaxResponse = 1 << 20

// LangSmithConfig configures the hosted-dataset evaluator.
type LangSmithConfig struct {
	APIKey  string
	BaseURL string
	Dataset string // evaluation dataset / session name, e.g. multi-needle-eval-pizza-3
	Timeout time.Duration
}

// defaults fills zero-valued fields.
func (c *LangSmithConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultLangSmithURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// LangSmith delegates scoring to a hosted evaluation run keyed by a named
// dataset: it submits the (question, response) pair as a run and reads back
// the dataset's own graded feedback.
type LangSmith struct {
	config   LangSmithConfig
	question string
	client   *http.Client
	logger   *slog.Logger
}

var _ Evaluator = (*LangSmith)(nil)

// NewLangSmith creates a hosted-dataset evaluator.
func NewLangSmith(cfg LangSmithConfig, question string, logger *slog.Logger) (*LangSmith, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("eval: langsmith: api key is required")
	}
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("eval: langsmith: dataset name is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LangSmith{
		config:   cfg,
		question: question,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// runPayload is the LangSmith run creation body.
type runPayload struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	RunType     string         `json:"run_type"`
	Inputs      map[string]any `json:"inputs"`
	Outputs     map[string]any `json:"outputs"`
	SessionName string         `json:"session_name"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
}

// feedbackItem is the subset of a LangSmith feedback object we read.
type feedbackItem struct {
	Score *float64 `json:"score"`
	Key   string   `json:"key"`
}

// Score submits the response as a run against the configured dataset and
// reads back the graded feedback. A run with no feedback yet yields a null
// score rather than an error: hosted grading is asynchronous and the raw
// pair is persisted either way.
func (l *LangSmith) Score(ctx context.Context, response string) (results.Score, error) {
	runID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	payload := runPayload{
		ID:          runID,
		Name:        "needle-retrieval",
		RunType:     "chain",
		Inputs:      map[string]any{"question": l.question},
		Outputs:     map[string]any{"output": response},
		SessionName: l.config.Dataset,
		StartTime:   now,
		EndTime:     now,
	}

	if err := l.post(ctx, "/runs", payload); err != nil {
		return results.NullScore(), fmt.Errorf("eval: langsmith submit run: %w", err)
	}

	var feedback []feedbackItem
	if err := l.get(ctx, "/feedback?run="+runID, &feedback); err != nil {
		return results.NullScore(), fmt.Errorf("eval: langsmith read feedback: %w", err)
	}

	for _, fb := range feedback {
		if fb.Score != nil {
			return results.ScoreOf(*fb.Score), nil
		}
	}

	l.logger.Debug("no graded feedback for run", "run_id", runID, "dataset", l.config.Dataset)
	return results.NullScore(), nil
}

// post sends a JSON POST to the LangSmith API.
func (l *LangSmith) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.config.APIKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, langsmithMaxResponse))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, raw)
	}
	return nil
}

// get performs a JSON GET against the LangSmith API.
func (l *LangSmith) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", l.config.APIKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, langsmithMaxResponse))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}
