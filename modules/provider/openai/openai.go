// Package openai implements the OpenAI Chat Completions provider.
// Any OpenAI-compatible endpoint (OpenRouter, vLLM, Ollama) works through
// the base_url setting.
package openai

import (
	"errors"
	"net/http"
	"time"

	"github.com/Aisuko/rp-needle/internal/provider"
)

func init() {
	provider.Register("openai", New)
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// DefaultBaseURL is the hosted OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// knownContextWindows maps model names to their maximum context window in
// tokens, used when context_window is not explicitly configured.
var knownContextWindows = map[string]int{
	"gpt-3.5-turbo":       16385,
	"gpt-4":               8192,
	"gpt-4-turbo":         128000,
	"gpt-4-turbo-preview": 128000,
	"gpt-4o":              128000,
	"gpt-4o-mini":         128000,
	"gpt-4.1":             1048576,
	"gpt-4.1-mini":        1048576,
	"gpt-4.1-nano":        1048576,
	"o1":                  200000,
	"o1-mini":             128000,
	"o3":                  200000,
	"o3-mini":             200000,
	"o4-mini":             200000,
}

// Client implements the OpenAI Chat Completions API.
type Client struct {
	settings      provider.Settings
	baseURL       string
	client        *http.Client
	contextWindow int
}

// New constructs an OpenAI client from settings.
func New(settings provider.Settings) (provider.Provider, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if settings.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := 120 * time.Second
	if settings.Timeout != "" {
		d, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			return nil, errors.New("openai: invalid timeout " + settings.Timeout)
		}
		timeout = d
	}

	// Resolve context window: explicit setting > known model map > 0.
	window := settings.ContextWindow
	if window == 0 {
		window = knownContextWindows[settings.Model]
	}

	return &Client{
		settings:      settings,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: timeout},
		contextWindow: window,
	}, nil
}

// ContextWindowSize returns the maximum context window in tokens.
func (c *Client) ContextWindowSize() int {
	return c.contextWindow
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.settings.Model
}
