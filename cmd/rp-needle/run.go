package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aisuko/rp-needle/internal/config"
	"github.com/Aisuko/rp-needle/internal/eval"
	"github.com/Aisuko/rp-needle/internal/haystack"
	"github.com/Aisuko/rp-needle/internal/monitor"
	"github.com/Aisuko/rp-needle/internal/provider"
	"github.com/Aisuko/rp-needle/internal/results"
	"github.com/Aisuko/rp-needle/internal/sweep"
	"github.com/Aisuko/rp-needle/internal/tokenizer"
	"github.com/Aisuko/rp-needle/modules/results/sqlite"
)

func runCmd() *cobra.Command {
	var (
		cfgPath      string
		providerName string
		modelName    string
		concurrency  int
		needles      []string
		multiNeedle  bool
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			// Flag overrides beat the config file.
			if providerName != "" {
				cfg.Provider.Name = providerName
			}
			if modelName != "" {
				cfg.Provider.Model = modelName
			}
			if concurrency > 0 {
				cfg.Sweep.Concurrency = concurrency
			}
			if len(needles) > 0 {
				cfg.Needles = needles
				if !multiNeedle && len(needles) == 1 {
					cfg.Needle = needles[0]
				}
			}
			if multiNeedle {
				cfg.MultiNeedle = true
			}

			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(logLevel),
			}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSweep(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "sweep.yaml", "Path to sweep configuration file")
	cmd.Flags().StringVar(&providerName, "provider", "", "Override provider name")
	cmd.Flags().StringVar(&modelName, "model", "", "Override model name")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Override trial concurrency")
	cmd.Flags().StringArrayVar(&needles, "needle", nil, "Override needle(s); repeat for multi-needle")
	cmd.Flags().BoolVar(&multiNeedle, "multi-needle", false, "Run in multi-needle mode")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

// runSweep wires the collaborators and executes the run.
func runSweep(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tok, err := buildTokenizer(cfg)
	if err != nil {
		return err
	}

	corpus, err := haystack.LoadCorpus(cfg.Haystack.Dir)
	if err != nil {
		return err
	}

	trim := haystack.TrimExact
	if cfg.Haystack.Trim == "sentence" {
		trim = haystack.TrimSentence
	}
	builder := haystack.NewBuilder(tok, corpus, haystack.BuildOptions{
		Trim:   trim,
		Repeat: cfg.Haystack.Repeat,
	})

	model, err := provider.New(cfg.Provider.Name, providerSettings(cfg.Provider))
	if err != nil {
		return err
	}

	evaluator, err := buildEvaluator(cfg, logger)
	if err != nil {
		return err
	}

	lengths, err := sweep.LengthSpec{
		Values:    cfg.ContextLengths.Values,
		Min:       cfg.ContextLengths.Min,
		Max:       cfg.ContextLengths.Max,
		Intervals: cfg.ContextLengths.Intervals,
	}.Expand()
	if err != nil {
		return err
	}
	depths, err := sweep.DepthSpec{
		Values:       cfg.DocumentDepths.Values,
		Min:          cfg.DocumentDepths.Min,
		Max:          cfg.DocumentDepths.Max,
		Intervals:    cfg.DocumentDepths.Intervals,
		Distribution: cfg.DocumentDepths.Distribution,
	}.Expand()
	if err != nil {
		return err
	}

	var sinks []sweep.RecordSink
	if cfg.Results.SaveResults {
		writer := results.DirWriter{ResultsDir: cfg.Results.Dir}
		if cfg.Results.SaveContexts {
			writer.ContextsDir = cfg.Results.ContextsDir
		}
		sinks = append(sinks, writer)
	}
	if cfg.Results.SQLitePath != "" {
		store, err := sqlite.Open(cfg.Results.SQLitePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		sinks = append(sinks, store)
	}

	stats := &sweep.Stats{}

	orch, err := sweep.New(sweep.Params{
		Tokenizer: tok,
		Builder:   builder,
		Model:     model,
		Evaluator: evaluator,
		Sinks:     sinks,
		Lengths:   lengths,
		Depths:    depths,
		Needles:   cfg.ActiveNeedles(),
		Question:  cfg.RetrievalQuestion,
		Logger:    logger,
		Stats:     stats,
		Options:   sweepOptions(cfg.Sweep),
	})
	if err != nil {
		return err
	}

	if cfg.Status.Addr != "" {
		server := monitor.NewServer(cfg.Status.Addr, model.ModelName(), stats, logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	matrix, runErr := orch.Run(ctx)

	if cfg.Results.SaveResults {
		if err := writeMatrix(cfg.Results.Dir, matrix); err != nil {
			logger.Error("writing matrix", "error", err)
		}
	}

	return runErr
}

// buildTokenizer selects the configured tokenizer implementation.
func buildTokenizer(cfg *config.Config) (tokenizer.Tokenizer, error) {
	switch cfg.Haystack.Tokenizer {
	case "words":
		return tokenizer.NewWords(), nil
	default:
		if cfg.Haystack.Encoding != "" {
			return tokenizer.NewTiktoken(cfg.Haystack.Encoding)
		}
		return tokenizer.NewTiktokenForModel(cfg.Provider.Model)
	}
}

// buildEvaluator selects the configured scoring strategy.
func buildEvaluator(cfg *config.Config, logger *slog.Logger) (eval.Evaluator, error) {
	reference := ""
	for _, n := range cfg.ActiveNeedles() {
		reference += n
	}

	switch cfg.Evaluator.Strategy {
	case config.StrategyLangSmith:
		return eval.NewLangSmith(eval.LangSmithConfig{
			APIKey:  cfg.Evaluator.APIKey,
			BaseURL: cfg.Evaluator.BaseURL,
			Dataset: cfg.Evaluator.Dataset,
		}, cfg.RetrievalQuestion, logger)
	default:
		grader, err := provider.New(cfg.Evaluator.Grader.Name, providerSettings(cfg.Evaluator.Grader))
		if err != nil {
			return nil, fmt.Errorf("building grader: %w", err)
		}
		return eval.NewModelGraded(grader, cfg.RetrievalQuestion, reference, logger), nil
	}
}

// providerSettings converts a config section into provider settings.
func providerSettings(p config.ProviderConfig) provider.Settings {
	return provider.Settings{
		APIKey:        p.APIKey,
		Model:         p.Model,
		BaseURL:       p.BaseURL,
		MaxTokens:     p.MaxTokens,
		Temperature:   p.Temperature,
		Timeout:       p.Timeout,
		ContextWindow: p.ContextWindow,
	}
}

// sweepOptions converts the sweep config section into orchestrator options.
func sweepOptions(s config.SweepConfig) sweep.Options {
	return sweep.Options{
		Concurrency:      s.Concurrency,
		Repeats:          s.Repeats,
		MaxAttempts:      s.MaxAttempts,
		InitialBackoff:   config.ParseDuration(s.InitialBackoff, 0),
		MaxBackoff:       config.ParseDuration(s.MaxBackoff, 0),
		CallTimeout:      config.ParseDuration(s.CallTimeout, 0),
		CompletionDelay:  config.ParseDuration(s.CompletionDelay, 0),
		ResponseBuffer:   s.ResponseBuffer,
		ResponseTokens:   s.ResponseTokens,
		AuthFailureLimit: s.AuthFailureLimit,
	}
}

// writeMatrix persists the final matrix pivot as CSV and JSON.
func writeMatrix(dir string, m results.Matrix) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(dir, "matrix.csv"))
	if err != nil {
		return err
	}
	defer func() { _ = csvFile.Close() }()
	if err := results.WriteMatrixCSV(csvFile, m); err != nil {
		return err
	}

	jsonFile, err := os.Create(filepath.Join(dir, "matrix.json"))
	if err != nil {
		return err
	}
	defer func() { _ = jsonFile.Close() }()
	return results.WriteMatrixJSON(jsonFile, m)
}

// parseLogLevel maps a level name to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
