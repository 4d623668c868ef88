package anthropic

import (
	"strings"

	"github.com/Aisuko/rp-needle/internal/provider"
)

// --- Anthropic API request/response types (unexported, serialization only) ---

type messagesRequest struct {
	Model         string       `json:"model"`
	MaxTokens     int          `json:"max_tokens"`
	System        string       `json:"system,omitempty"`
	Messages      []apiMessage `json:"messages"`
	Temperature   *float64     `json:"temperature,omitempty"`
	StopSequences []string     `json:"stop_sequences,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      apiUsage       `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// defaultMaxTokens applies when neither request nor settings set one;
// the Messages API requires max_tokens.
const defaultMaxTokens = 1024

// convertRequest maps a provider CompletionRequest to the Messages API
// shape. System messages move into the top-level system field; the API
// rejects them inside the messages array.
func (c *Client) convertRequest(req provider.CompletionRequest) messagesRequest {
	mr := messagesRequest{
		Model:     c.settings.Model,
		MaxTokens: defaultMaxTokens,
	}

	switch {
	case req.MaxTokens > 0:
		mr.MaxTokens = req.MaxTokens
	case c.settings.MaxTokens > 0:
		mr.MaxTokens = c.settings.MaxTokens
	}

	switch {
	case req.Temperature != nil:
		mr.Temperature = req.Temperature
	case c.settings.Temperature != nil:
		mr.Temperature = c.settings.Temperature
	}

	if len(req.Stop) > 0 {
		mr.StopSequences = req.Stop
	}

	var systemParts []string
	for _, m := range req.Messages {
		if m.Role == provider.MessageRoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		mr.Messages = append(mr.Messages, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	mr.System = strings.Join(systemParts, "\n\n")

	return mr
}

// convertResponse maps a Messages API response to a provider
// CompletionResponse, concatenating text content blocks.
func convertResponse(resp *messagesResponse) provider.CompletionResponse {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return provider.CompletionResponse{
		Content:      sb.String(),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: provider.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// mapStopReason converts an Anthropic stop_reason to a provider FinishReason.
func mapStopReason(reason string) provider.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return provider.FinishReasonStop
	case "max_tokens":
		return provider.FinishReasonLength
	case "refusal":
		return provider.FinishReasonFiltering
	default:
		return provider.FinishReason(reason)
	}
}
