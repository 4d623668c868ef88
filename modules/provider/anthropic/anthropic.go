// Package anthropic implements the Anthropic Messages API provider.
package anthropic

import (
	"errors"
	"net/http"
	"time"

	"github.com/Aisuko/rp-needle/internal/provider"
)

func init() {
	provider.Register("anthropic", New)
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// DefaultBaseURL is the hosted Anthropic API endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

// apiVersion is the anthropic-version header value.
const apiVersion = "2023-06-01"

// knownContextWindows maps model name prefixes to context window sizes in
// tokens. Anthropic model names carry a date suffix, so prefixes are used.
var knownContextWindows = map[string]int{
	"claude-3-haiku":  200000,
	"claude-3-opus":   200000,
	"claude-3-5":      200000,
	"claude-3-7":      200000,
	"claude-sonnet-4": 200000,
	"claude-opus-4":   200000,
}

// Client implements the Anthropic Messages API.
type Client struct {
	settings      provider.Settings
	baseURL       string
	client        *http.Client
	contextWindow int
}

// New constructs an Anthropic client from settings.
func New(settings provider.Settings) (provider.Provider, error) {
	if settings.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if settings.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := 120 * time.Second
	if settings.Timeout != "" {
		d, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			return nil, errors.New("anthropic: invalid timeout " + settings.Timeout)
		}
		timeout = d
	}

	window := settings.ContextWindow
	if window == 0 {
		window = windowForModel(settings.Model)
	}

	return &Client{
		settings:      settings,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: timeout},
		contextWindow: window,
	}, nil
}

// windowForModel resolves a context window by model name prefix.
func windowForModel(model string) int {
	for prefix, size := range knownContextWindows {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return size
		}
	}
	return 0
}

// ContextWindowSize returns the maximum context window in tokens.
func (c *Client) ContextWindowSize() int {
	return c.contextWindow
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.settings.Model
}
