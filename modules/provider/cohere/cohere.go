// Package cohere implements the Cohere Chat v2 API provider.
package cohere

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Aisuko/rp-needle/internal/provider"
)

func init() {
	provider.Register("cohere", New)
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// DefaultBaseURL is the hosted Cohere API endpoint.
const DefaultBaseURL = "https://api.cohere.com"

// knownContextWindows maps model name prefixes to context window sizes.
var knownContextWindows = map[string]int{
	"command-r":   128000,
	"command-a":   256000,
	"command-r7b": 128000,
	"command":     4096,
}

// Client implements the Cohere Chat v2 API.
type Client struct {
	settings      provider.Settings
	baseURL       string
	client        *http.Client
	contextWindow int
}

// New constructs a Cohere client from settings.
func New(settings provider.Settings) (provider.Provider, error) {
	if settings.APIKey == "" {
		return nil, errors.New("cohere: api key is required")
	}
	if settings.Model == "" {
		return nil, errors.New("cohere: model is required")
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := 120 * time.Second
	if settings.Timeout != "" {
		d, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			return nil, errors.New("cohere: invalid timeout " + settings.Timeout)
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

// windowForModel resolves a context window by longest matching model name
// prefix ("command-r" must not shadow "command-r7b").
func windowForModel(model string) int {
	best := 0
	window := 0
	for prefix, size := range knownContextWindows {
		if strings.HasPrefix(model, prefix) && len(prefix) > best {
			best = len(prefix)
			window = size
		}
	}
	return window
}

// ContextWindowSize returns the maximum context window in tokens.
func (c *Client) ContextWindowSize() int {
	return c.contextWindow
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.settings.Model
}
