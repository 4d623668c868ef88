package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Aisuko/rp-needle/internal/provider"
)

// maxResponseSize is the maximum response body size (10 MB).
const maxResponseSize = 10 * 1024 * 1024

// --- Cohere Chat v2 API types (unexported, serialization only) ---

type chatRequest struct {
	Model         string       `json:"model"`
	Messages      []apiMessage `json:"messages"`
	MaxTokens     int          `json:"max_tokens,omitempty"`
	Temperature   *float64     `json:"temperature,omitempty"`
	StopSequences []string     `json:"stop_sequences,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content []contentBlock `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
	Usage        struct {
		BilledUnits struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

// Complete sends a completion request to the Chat v2 API.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	cr := chatRequest{
		Model:    c.settings.Model,
		Messages: make([]apiMessage, len(req.Messages)),
	}
	for i, m := range req.Messages {
		cr.Messages[i] = apiMessage{Role: string(m.Role), Content: m.Content}
	}
	switch {
	case req.MaxTokens > 0:
		cr.MaxTokens = req.MaxTokens
	case c.settings.MaxTokens > 0:
		cr.MaxTokens = c.settings.MaxTokens
	}
	switch {
	case req.Temperature != nil:
		cr.Temperature = req.Temperature
	case c.settings.Temperature != nil:
		cr.Temperature = c.settings.Temperature
	}
	if len(req.Stop) > 0 {
		cr.StopSequences = req.Stop
	}

	payload, err := json.Marshal(cr)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("cohere: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/chat", bytes.NewReader(payload))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("cohere: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.settings.APIKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return provider.CompletionResponse{}, mapConnectionError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("cohere: read response: %w", err)
	}

	if httpErr := mapHTTPError(httpResp.StatusCode, body); httpErr != nil {
		return provider.CompletionResponse{}, httpErr
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("cohere: unmarshal response: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return provider.CompletionResponse{
		Content:      sb.String(),
		FinishReason: mapFinishReason(resp.FinishReason),
		Usage: provider.TokenUsage{
			PromptTokens:     resp.Usage.BilledUnits.InputTokens,
			CompletionTokens: resp.Usage.BilledUnits.OutputTokens,
			TotalTokens:      resp.Usage.BilledUnits.InputTokens + resp.Usage.BilledUnits.OutputTokens,
		},
	}, nil
}

// mapFinishReason converts a Cohere finish_reason to a provider FinishReason.
func mapFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "COMPLETE", "STOP_SEQUENCE":
		return provider.FinishReasonStop
	case "MAX_TOKENS":
		return provider.FinishReasonLength
	default:
		return provider.FinishReason(reason)
	}
}
