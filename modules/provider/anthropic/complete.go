package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Aisuko/rp-needle/internal/provider"
)

// maxResponseSize is the maximum response body size (10 MB).
const maxResponseSize = 10 * 1024 * 1024

// Complete sends a synchronous completion request to the Messages API.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	payload, err := json.Marshal(c.convertRequest(req))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.settings.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return provider.CompletionResponse{}, mapConnectionError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: read response: %w", err)
	}

	if httpErr := mapHTTPError(httpResp.StatusCode, body); httpErr != nil {
		return provider.CompletionResponse{}, httpErr
	}

	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: unmarshal response: %w", err)
	}

	return convertResponse(&resp), nil
}
