package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aisuko/rp-needle/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) provider.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(provider.Settings{
		APIKey:  "test-key",
		Model:   "command-r-plus",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v2/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var resp chatResponse
		resp.Message.Content = []contentBlock{{Type: "text", Text: "eat a sandwich"}}
		resp.FinishReason = "COMPLETE"
		resp.Usage.BilledUnits.InputTokens = 90
		resp.Usage.BilledUnits.OutputTokens = 10
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := c.Complete(context.Background(), provider.CompletionRequest{
		Messages:  []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "what is the secret?"}},
		MaxTokens: 300,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer key", gotAuth)
	}
	if gotReq.Model != "command-r-plus" || gotReq.MaxTokens != 300 {
		t.Errorf("request = %+v, want model and max_tokens forwarded", gotReq)
	}
	if resp.Content != "eat a sandwich" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != provider.FinishReasonStop {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 100 {
		t.Errorf("TotalTokens = %d, want 100", resp.Usage.TotalTokens)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "rate limited", status: 429, body: `{"message":"too many requests"}`, want: provider.ErrRateLimit},
		{name: "bad key", status: 401, body: `{"message":"invalid api token"}`, want: provider.ErrAuth},
		{name: "server error", status: 503, body: `{"message":"unavailable"}`, want: provider.ErrProviderDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), provider.CompletionRequest{
				Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Complete() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWindowForModel(t *testing.T) {
	t.Parallel()

	// Longest prefix must win: command-r7b is not a command-r variant.
	if got := windowForModel("command-r7b-12-2024"); got != 128000 {
		t.Errorf("windowForModel(command-r7b) = %d, want 128000", got)
	}
	if got := windowForModel("command-a-03-2025"); got != 256000 {
		t.Errorf("windowForModel(command-a) = %d, want 256000", got)
	}
	if got := windowForModel("command-light"); got != 4096 {
		t.Errorf("windowForModel(command-light) = %d, want the bare command window", got)
	}
	if got := windowForModel("aya-expanse"); got != 0 {
		t.Errorf("windowForModel(unknown) = %d, want 0", got)
	}
}
