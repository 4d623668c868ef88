package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Aisuko/rp-needle/internal/eval"
	"github.com/Aisuko/rp-needle/internal/haystack"
	"github.com/Aisuko/rp-needle/internal/provider"
	"github.com/Aisuko/rp-needle/internal/results"
	"github.com/Aisuko/rp-needle/internal/tokenizer"
)

// RecordSink receives every finished trial record. Sinks are invoked from
// worker goroutines; implementations must be safe for concurrent use.
type RecordSink interface {
	Record(ctx context.Context, rec results.Record) error
}

// Options configures sweep execution.
type Options struct {
	// Concurrency bounds simultaneous in-flight trials.
	Concurrency int

	// Repeats runs each grid cell multiple times; cell scores are averaged.
	Repeats int

	// MaxAttempts caps provider call attempts per trial, initial call included.
	MaxAttempts int

	// InitialBackoff and MaxBackoff shape the exponential retry delay.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// CallTimeout bounds each individual provider call. A call exceeding
	// it counts as one retryable failure, distinct from the attempt ceiling.
	CallTimeout time.Duration

	// CompletionDelay pauses after each successful completion, for
	// providers whose rate limits concurrency alone cannot respect.
	CompletionDelay time.Duration

	// ResponseBuffer is subtracted from every requested context length to
	// leave room for the system preamble and the model's reply.
	ResponseBuffer int

	// ResponseTokens is the max_tokens given to the model under test.
	ResponseTokens int

	// AuthFailureLimit aborts the run after this many authentication
	// failures; such requests can never succeed.
	AuthFailureLimit int
}

// defaults fills zero-valued fields with sensible defaults.
func (o *Options) defaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.Repeats < 1 {
		o.Repeats = 1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 60 * time.Second
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 120 * time.Second
	}
	if o.ResponseBuffer < 0 {
		o.ResponseBuffer = 0
	}
	if o.ResponseTokens <= 0 {
		o.ResponseTokens = 300
	}
	if o.AuthFailureLimit <= 0 {
		o.AuthFailureLimit = 3
	}
}

// Params bundles the collaborators an Orchestrator needs.
type Params struct {
	Tokenizer  tokenizer.Tokenizer
	Builder    *haystack.Builder
	Model      provider.Provider
	Evaluator  eval.Evaluator
	Aggregator *results.Aggregator
	Sinks      []RecordSink
	Lengths    []int
	Depths     []float64
	Needles    []string
	Question   string
	Logger     *slog.Logger
	Stats      *Stats
	Options    Options
}

// Orchestrator executes the trial grid. It is single-shot: construct,
// Run once, read the matrix.
type Orchestrator struct {
	tok       tokenizer.Tokenizer
	builder   *haystack.Builder
	model     provider.Provider
	evaluator eval.Evaluator
	agg       *results.Aggregator
	sinks     []RecordSink
	lengths   []int
	depths    []float64
	needles   []string
	question  string
	logger    *slog.Logger
	stats     *Stats
	opts      Options

	authFailures atomic.Int64

	mu     sync.Mutex
	cancel context.CancelCauseFunc
}

// New creates an Orchestrator from the given parameters.
func New(p Params) (*Orchestrator, error) {
	if p.Tokenizer == nil || p.Builder == nil || p.Model == nil || p.Evaluator == nil {
		return nil, errors.New("sweep: tokenizer, builder, model, and evaluator are required")
	}
	if len(p.Lengths) == 0 || len(p.Depths) == 0 {
		return nil, errors.New("sweep: at least one context length and one depth are required")
	}
	if p.Aggregator == nil {
		p.Aggregator = results.NewAggregator()
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}
	if p.Stats == nil {
		p.Stats = &Stats{}
	}
	p.Options.defaults()

	return &Orchestrator{
		tok:       p.Tokenizer,
		builder:   p.Builder,
		model:     p.Model,
		evaluator: p.Evaluator,
		agg:       p.Aggregator,
		sinks:     p.Sinks,
		lengths:   p.Lengths,
		depths:    p.Depths,
		needles:   p.Needles,
		question:  p.Question,
		logger:    p.Logger,
		stats:     p.Stats,
		opts:      p.Options,
	}, nil
}

// Aggregator exposes the result aggregator, e.g. for final persistence.
func (o *Orchestrator) Aggregator() *results.Aggregator {
	return o.agg
}

// Run executes the full grid and returns the aggregated matrix. On abort
// the matrix holds whatever completed and the error wraps ErrRunAborted.
// Per-trial failures never abort the run; every dispatched trial ends as
// exactly one record.
func (o *Orchestrator) Run(ctx context.Context) (results.Matrix, error) {
	if err := o.preflight(); err != nil {
		return results.Matrix{}, err
	}

	trials := Grid(o.lengths, o.depths, o.needles, o.opts.Repeats)
	o.logger.Info("starting sweep",
		"trials", len(trials),
		"lengths", len(o.lengths),
		"depths", len(o.depths),
		"concurrency", o.opts.Concurrency,
		"model", o.model.ModelName(),
	)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	inbox := make(chan Trial)
	pool := newWorkerPool(o.opts.Concurrency)
	pool.Start(runCtx, inbox, o.runTrial)

	dispatched := 0
dispatch:
	for _, t := range trials {
		select {
		case <-runCtx.Done():
			break dispatch
		case inbox <- t:
			dispatched++
			o.stats.RecordDispatch()
		}
	}
	close(inbox)
	pool.Wait()

	matrix := o.agg.Matrix()
	total, failed, unscored := o.agg.Counts()
	o.logger.Info("sweep finished",
		"dispatched", dispatched,
		"records", total,
		"failed", failed,
		"unscored", unscored,
	)

	if dispatched < len(trials) {
		if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return matrix, fmt.Errorf("%w: %w", ErrRunAborted, cause)
		}
		return matrix, ErrRunAborted
	}
	return matrix, nil
}

// preflight validates inputs that are fatal before any dispatch: needle
// presence, depth range, and whether the corpus can supply the largest
// requested haystack.
func (o *Orchestrator) preflight() error {
	if len(o.needles) == 0 {
		return haystack.ErrNoNeedle
	}
	for _, d := range o.depths {
		if d < 0 || d > 100 {
			return fmt.Errorf("%w: %v", haystack.ErrInvalidDepth, d)
		}
	}

	needleTokens := o.needleTokenTotal()
	minLength := o.lengths[0]
	maxLength := o.lengths[0]
	for _, l := range o.lengths[1:] {
		if l < minLength {
			minLength = l
		}
		if l > maxLength {
			maxLength = l
		}
	}
	if minLength-o.opts.ResponseBuffer-needleTokens <= 0 {
		return fmt.Errorf("sweep: context length %d leaves no room for haystack (buffer %d, needle tokens %d)",
			minLength, o.opts.ResponseBuffer, needleTokens)
	}

	// One probe build at the largest length so an undersized corpus fails
	// the run before the first provider call.
	if _, err := o.builder.Build(maxLength - o.opts.ResponseBuffer - needleTokens); err != nil {
		return err
	}
	return nil
}

// needleTokenTotal returns the combined token length of all needles.
func (o *Orchestrator) needleTokenTotal() int {
	total := 0
	for _, n := range o.needles {
		total += o.tok.Count(n)
	}
	return total
}

// renderContext builds the trial haystack with needles applied. The needle
// token budget is reserved upfront, so the rendered context is exactly the
// requested length minus the response buffer.
func (o *Orchestrator) renderContext(t Trial) (string, error) {
	budget := t.Length - o.opts.ResponseBuffer - o.needleTokenTotal()
	base, err := o.builder.Build(budget)
	if err != nil {
		return "", err
	}
	plan, err := haystack.PlanInsertions(o.tok, base, t.Depth, t.Needles)
	if err != nil {
		return "", err
	}
	return haystack.Apply(o.tok, base, plan).Text, nil
}

// runTrial executes one trial end to end: build, place, render, complete,
// evaluate, record. Runs on a worker goroutine.
func (o *Orchestrator) runTrial(ctx context.Context, t Trial) {
	started := time.Now()
	rec := results.Record{
		Model:     o.model.ModelName(),
		Length:    t.Length,
		Depth:     t.Depth,
		Repeat:    t.Repeat,
		Needles:   t.Needles,
		Question:  o.question,
		StartedAt: started.UTC(),
	}

	rendered, err := o.renderContext(t)
	if err != nil {
		o.finish(ctx, rec, results.StatusFailed, err, started)
		return
	}
	rec.Context = rendered

	resp, attempts, err := o.complete(ctx, provider.CompletionRequest{
		Messages:  RenderPrompt(rendered, o.question),
		MaxTokens: o.opts.ResponseTokens,
	})
	rec.Attempts = attempts
	if err != nil {
		o.finish(ctx, rec, results.StatusFailed, err, started)
		return
	}
	rec.Response = resp.Content

	if o.opts.CompletionDelay > 0 {
		select {
		case <-time.After(o.opts.CompletionDelay):
		case <-ctx.Done():
		}
	}

	score, err := o.evaluator.Score(ctx, resp.Content)
	switch {
	case err != nil:
		// Per-trial evaluation failures (unparsable grading reply,
		// evaluator transport error) record a null score; the run goes on.
		o.finish(ctx, rec, results.StatusUnscored, err, started)
	case !score.Valid:
		o.finish(ctx, rec, results.StatusUnscored, nil, started)
	default:
		rec.Score = score
		o.finish(ctx, rec, results.StatusOK, nil, started)
	}
}

// finish stamps, appends, and persists the trial record.
func (o *Orchestrator) finish(ctx context.Context, rec results.Record, status results.Status, cause error, started time.Time) {
	rec.Status = status
	rec.Duration = time.Since(started)
	if cause != nil {
		rec.Error = cause.Error()
	}

	switch status {
	case results.StatusOK:
		o.stats.RecordCompletion(rec.Duration)
		o.logger.Info("trial scored",
			"length", rec.Length, "depth", rec.Depth, "score", rec.Score.Value, "attempts", rec.Attempts)
	case results.StatusUnscored:
		o.stats.RecordUnscored(rec.Duration)
		o.logger.Warn("trial unscored", "length", rec.Length, "depth", rec.Depth, "error", rec.Error)
	case results.StatusFailed:
		o.stats.RecordFailure()
		o.logger.Error("trial failed", "length", rec.Length, "depth", rec.Depth, "error", rec.Error)
	}

	o.agg.Append(rec)
	for _, sink := range o.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			o.logger.Error("record sink failed", "error", err)
		}
	}
}

// complete calls the provider with per-call timeout and exponential retry.
// Transient failures (rate limit, provider down, per-call timeout) retry up
// to MaxAttempts; everything else is permanent. Run-level cancellation is
// observed before every retry.
func (o *Orchestrator) complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, int, error) {
	attempts := 0

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.opts.InitialBackoff
	expo.MaxInterval = o.opts.MaxBackoff

	operation := func() (provider.CompletionResponse, error) {
		attempts++
		callCtx, cancelCall := context.WithTimeout(ctx, o.opts.CallTimeout)
		resp, err := o.model.Complete(callCtx, req)
		cancelCall()
		if err == nil {
			return resp, nil
		}

		switch {
		case provider.IsAuth(err):
			o.noteAuthFailure(err)
			return resp, backoff.Permanent(err)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// Per-call timeout: one retryable failure.
			o.stats.RecordRetry()
			return resp, err
		case provider.IsRetryable(err):
			o.stats.RecordRetry()
			return resp, err
		default:
			return resp, backoff.Permanent(err)
		}
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(o.opts.MaxAttempts)),
	)
	return resp, attempts, err
}

// noteAuthFailure counts an authentication failure and aborts the run once
// the limit is reached.
func (o *Orchestrator) noteAuthFailure(err error) {
	if o.authFailures.Add(1) < int64(o.opts.AuthFailureLimit) {
		return
	}
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		o.logger.Error("aborting run after repeated authentication failures", "error", err)
		cancel(fmt.Errorf("authentication failures reached limit %d: %w", o.opts.AuthFailureLimit, err))
	}
}
