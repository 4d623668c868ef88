// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for rp-needle sweeps.
package config

import "time"

// Config is the top-level run configuration. It is immutable after loading:
// a run is single-shot, so there is no process-wide mutable state.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Provider configures the model under test.
	Provider ProviderConfig `yaml:"provider"`

	// Evaluator selects and configures the scoring strategy.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Haystack configures corpus loading and context assembly.
	Haystack HaystackConfig `yaml:"haystack"`

	// Needle is the fact inserted in single-needle mode.
	Needle string `yaml:"needle"`

	// Needles is the ordered needle set used when MultiNeedle is true.
	Needles []string `yaml:"needles"`

	// MultiNeedle switches from Needle to the Needles list.
	MultiNeedle bool `yaml:"multi_needle"`

	// RetrievalQuestion is the question used to retrieve the needle.
	RetrievalQuestion string `yaml:"retrieval_question"`

	// ContextLengths enumerates the context length axis.
	ContextLengths LengthsConfig `yaml:"context_lengths"`

	// DocumentDepths enumerates the insertion depth axis.
	DocumentDepths DepthsConfig `yaml:"document_depths"`

	// Sweep controls concurrency, retries, and timeouts.
	Sweep SweepConfig `yaml:"sweep"`

	// Results controls persistence of trial records and the final matrix.
	Results ResultsConfig `yaml:"results"`

	// Status optionally exposes an HTTP status/metrics endpoint.
	Status StatusConfig `yaml:"status"`
}

// ProviderConfig configures a model client.
type ProviderConfig struct {
	Name          string   `yaml:"name"`
	Model         string   `yaml:"model"`
	APIKey        string   `yaml:"api_key"`
	BaseURL       string   `yaml:"base_url"`
	MaxTokens     int      `yaml:"max_tokens"`
	Temperature   *float64 `yaml:"temperature"`
	Timeout       string   `yaml:"timeout"`
	ContextWindow int      `yaml:"context_window"`
}

// Evaluator strategy names.
const (
	StrategyModel     = "model"
	StrategyLangSmith = "langsmith"
)

// EvaluatorConfig selects the scoring strategy.
type EvaluatorConfig struct {
	// Strategy is "model" (model-graded rubric) or "langsmith"
	// (hosted-dataset grading).
	Strategy string `yaml:"strategy"`

	// Grader configures the grading model for the "model" strategy.
	// Defaults to the provider under test's credentials when empty.
	Grader ProviderConfig `yaml:"grader"`

	// APIKey, BaseURL, and Dataset configure the "langsmith" strategy.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Dataset string `yaml:"dataset"`
}

// HaystackConfig configures corpus loading and context assembly.
type HaystackConfig struct {
	// Dir contains the .txt documents used as background context.
	Dir string `yaml:"dir"`

	// Trim is "exact" (token-exact hard trim) or "sentence"
	// (sentence-boundary trim that may fall short of the target).
	Trim string `yaml:"trim"`

	// Repeat wraps the corpus when it cannot supply the largest length.
	Repeat bool `yaml:"repeat"`

	// Tokenizer is "tiktoken" (default) or "words" (offline fallback).
	Tokenizer string `yaml:"tokenizer"`

	// Encoding names the tiktoken encoding, e.g. cl100k_base.
	Encoding string `yaml:"encoding"`
}

// LengthsConfig enumerates context lengths: explicit values, or a
// min/max/intervals span.
type LengthsConfig struct {
	Values    []int `yaml:"values"`
	Min       int   `yaml:"min"`
	Max       int   `yaml:"max"`
	Intervals int   `yaml:"intervals"`
}

// DepthsConfig enumerates depth percents: explicit values, or a
// min/max/intervals span with a linear or sigmoid distribution.
type DepthsConfig struct {
	Values       []float64 `yaml:"values"`
	Min          float64   `yaml:"min"`
	Max          float64   `yaml:"max"`
	Intervals    int       `yaml:"intervals"`
	Distribution string    `yaml:"distribution"`
}

// SweepConfig controls execution.
type SweepConfig struct {
	Concurrency      int    `yaml:"concurrency"`
	Repeats          int    `yaml:"repeats"`
	MaxAttempts      int    `yaml:"max_attempts"`
	InitialBackoff   string `yaml:"initial_backoff"`
	MaxBackoff       string `yaml:"max_backoff"`
	CallTimeout      string `yaml:"call_timeout"`
	CompletionDelay  string `yaml:"completion_delay"`
	ResponseBuffer   int    `yaml:"response_buffer"`
	ResponseTokens   int    `yaml:"response_tokens"`
	AuthFailureLimit int    `yaml:"auth_failure_limit"`
}

// ResultsConfig controls persistence.
type ResultsConfig struct {
	SaveResults  bool   `yaml:"save_results"`
	Dir          string `yaml:"dir"`
	SaveContexts bool   `yaml:"save_contexts"`
	ContextsDir  string `yaml:"contexts_dir"`
	SQLitePath   string `yaml:"sqlite_path"`
}

// StatusConfig configures the optional status HTTP server.
type StatusConfig struct {
	// Addr is the listen address, e.g. ":9090". Empty disables the server.
	Addr string `yaml:"addr"`
}

// ActiveNeedles returns the needle set for this run: the Needles list in
// multi-needle mode, otherwise the single Needle.
func (c *Config) ActiveNeedles() []string {
	if c.MultiNeedle {
		return c.Needles
	}
	if c.Needle == "" {
		return nil
	}
	return []string{c.Needle}
}

// Defaults fills zero-valued fields with the defaults of the original
// needle-in-a-haystack benchmark.
func (c *Config) Defaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "openai"
	}
	if c.Evaluator.Strategy == "" {
		c.Evaluator.Strategy = StrategyModel
	}
	if c.Evaluator.Strategy == StrategyModel && c.Evaluator.Grader.Name == "" {
		// Grade with the same provider and credentials as the model under
		// test unless a dedicated grader is configured.
		c.Evaluator.Grader = c.Provider
	}
	if c.Haystack.Trim == "" {
		c.Haystack.Trim = "exact"
	}
	if c.Haystack.Tokenizer == "" {
		c.Haystack.Tokenizer = "tiktoken"
	}
	if c.RetrievalQuestion == "" {
		c.RetrievalQuestion = "What is the best thing to do in San Francisco?"
	}
	if c.Needle == "" {
		c.Needle = "\nThe best thing to do in San Francisco is eat a sandwich and sit in Dolores Park on a sunny day.\n"
	}
	if len(c.ContextLengths.Values) == 0 && c.ContextLengths.Min == 0 && c.ContextLengths.Max == 0 {
		c.ContextLengths.Min = 1000
		c.ContextLengths.Max = 16000
		c.ContextLengths.Intervals = 35
	}
	if len(c.DocumentDepths.Values) == 0 && c.DocumentDepths.Max == 0 {
		c.DocumentDepths.Min = 0
		c.DocumentDepths.Max = 100
		c.DocumentDepths.Intervals = 35
	}
	if c.DocumentDepths.Distribution == "" {
		c.DocumentDepths.Distribution = "linear"
	}
	if c.Sweep.ResponseBuffer == 0 {
		c.Sweep.ResponseBuffer = 200
	}
	if c.Results.Dir == "" {
		c.Results.Dir = "results"
	}
	if c.Results.ContextsDir == "" {
		c.Results.ContextsDir = "contexts"
	}
}

// ParseDuration parses a duration field, returning fallback for empty
// strings. Validation catches malformed values; this assumes them valid.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
