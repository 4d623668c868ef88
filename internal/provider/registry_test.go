package provider

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type stubProvider struct{ model string }

func (s *stubProvider) Complete(context.Context, CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{Content: "ok"}, nil
}
func (s *stubProvider) ContextWindowSize() int { return 1000 }
func (s *stubProvider) ModelName() string      { return s.model }

func TestRegistry_RegisterAndNew(t *testing.T) {
	Register("registry-test", func(settings Settings) (Provider, error) {
		return &stubProvider{model: settings.Model}, nil
	})

	p, err := New("registry-test", Settings{Model: "stub-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.ModelName() != "stub-model" {
		t.Errorf("ModelName() = %q, want settings passed through", p.ModelName())
	}

	if names := Names(); !slices.Contains(names, "registry-test") {
		t.Errorf("Names() = %v, missing registered provider", names)
	}
	if !slices.IsSorted(Names()) {
		t.Errorf("Names() = %v, want sorted", Names())
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New("nonexistent", Settings{})
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("New() error = %v, want ErrNoProvider", err)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()
	Register("registry-dup", func(Settings) (Provider, error) { return nil, nil })
	Register("registry-dup", func(Settings) (Provider, error) { return nil, nil })
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	if !IsRetryable(ErrRateLimit) || !IsRetryable(ErrProviderDown) {
		t.Error("rate limit and provider down must be retryable")
	}
	if IsRetryable(ErrAuth) || IsRetryable(ErrContextLength) {
		t.Error("auth and context length must not be retryable")
	}
	if !IsAuth(ErrAuth) {
		t.Error("IsAuth(ErrAuth) = false")
	}
	if IsAuth(errors.New("other")) {
		t.Error("IsAuth matched an unrelated error")
	}
}
