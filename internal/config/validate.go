package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join so a bad config surfaces in one pass.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateProvider("provider", cfg.Provider)...)
	errs = append(errs, validateEvaluator(cfg)...)

	if cfg.Haystack.Dir == "" {
		errs = append(errs, errors.New("config: haystack.dir is required"))
	}
	switch cfg.Haystack.Trim {
	case "exact", "sentence":
	default:
		errs = append(errs, fmt.Errorf("config: haystack.trim must be \"exact\" or \"sentence\", got %q", cfg.Haystack.Trim))
	}
	switch cfg.Haystack.Tokenizer {
	case "tiktoken", "words":
	default:
		errs = append(errs, fmt.Errorf("config: haystack.tokenizer must be \"tiktoken\" or \"words\", got %q", cfg.Haystack.Tokenizer))
	}

	if len(cfg.ActiveNeedles()) == 0 {
		errs = append(errs, errors.New("config: a needle is required (needle, or needles with multi_needle)"))
	}
	if cfg.RetrievalQuestion == "" {
		errs = append(errs, errors.New("config: retrieval_question is required"))
	}

	if len(cfg.ContextLengths.Values) == 0 {
		if cfg.ContextLengths.Min <= 0 || cfg.ContextLengths.Max < cfg.ContextLengths.Min || cfg.ContextLengths.Intervals <= 0 {
			errs = append(errs, errors.New("config: context_lengths needs values or a valid min/max/intervals span"))
		}
	}
	if len(cfg.DocumentDepths.Values) == 0 {
		if cfg.DocumentDepths.Max < cfg.DocumentDepths.Min || cfg.DocumentDepths.Intervals <= 0 {
			errs = append(errs, errors.New("config: document_depths needs values or a valid min/max/intervals span"))
		}
	}
	for _, d := range cfg.DocumentDepths.Values {
		if d < 0 || d > 100 {
			errs = append(errs, fmt.Errorf("config: document depth %v outside [0,100]", d))
		}
	}
	switch cfg.DocumentDepths.Distribution {
	case "linear", "sigmoid":
	default:
		errs = append(errs, fmt.Errorf("config: document_depths.distribution must be \"linear\" or \"sigmoid\", got %q", cfg.DocumentDepths.Distribution))
	}

	errs = append(errs, validateDurations(cfg.Sweep)...)

	return errors.Join(errs...)
}

// validateProvider checks the fields every provider needs.
func validateProvider(section string, p ProviderConfig) []error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("config: %s.name is required", section))
	}
	if p.Model == "" {
		errs = append(errs, fmt.Errorf("config: %s.model is required", section))
	}
	if p.APIKey == "" {
		errs = append(errs, fmt.Errorf("config: %s.api_key is required", section))
	}
	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("config: %s.timeout: %w", section, err))
		}
	}
	return errs
}

// validateEvaluator checks the strategy-specific evaluator fields.
func validateEvaluator(cfg *Config) []error {
	switch cfg.Evaluator.Strategy {
	case StrategyModel:
		return validateProvider("evaluator.grader", cfg.Evaluator.Grader)
	case StrategyLangSmith:
		var errs []error
		if cfg.Evaluator.APIKey == "" {
			errs = append(errs, errors.New("config: evaluator.api_key is required for the langsmith strategy"))
		}
		if cfg.Evaluator.Dataset == "" {
			errs = append(errs, errors.New("config: evaluator.dataset is required for the langsmith strategy"))
		}
		return errs
	default:
		return []error{fmt.Errorf("config: evaluator.strategy must be %q or %q, got %q",
			StrategyModel, StrategyLangSmith, cfg.Evaluator.Strategy)}
	}
}

// validateDurations checks every duration-typed sweep field.
func validateDurations(s SweepConfig) []error {
	var errs []error
	fields := map[string]string{
		"sweep.initial_backoff":  s.InitialBackoff,
		"sweep.max_backoff":      s.MaxBackoff,
		"sweep.call_timeout":     s.CallTimeout,
		"sweep.completion_delay": s.CompletionDelay,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
		}
	}
	return errs
}
