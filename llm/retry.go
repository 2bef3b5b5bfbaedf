// Retry/backoff policy shared by all providers.
//
// WithRetry wraps a Provider so every Generate call gets up to three attempts
// with exponential backoff and jitter. Non-retryable failures (auth, malformed
// request, unknown model) surface after a single attempt. Each attempt is
// reported to the telemetry hook with its duration and outcome.

package llm

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	// maxAttempts is the total attempt budget per call: one initial attempt
	// plus two retries.
	maxAttempts = 3

	baseDelay = 1 * time.Second
	maxDelay  = 10 * time.Second
)

// computeDelay returns the backoff before the retry that follows failed
// attempt n (1-based): min(2^n * 1s + random(0, 1s), 10s).
func computeDelay(attempt int) time.Duration {
	d := time.Duration(1<<attempt)*baseDelay + time.Duration(rand.Int64N(int64(time.Second)))
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

// AttemptInfo describes one completed provider attempt.
type AttemptInfo struct {
	Provider string
	Model    string
	// Attempt is 1-based within a single call.
	Attempt  int
	Duration time.Duration
	// Err is nil on success.
	Err error
}

// TelemetryFunc receives latency/outcome telemetry after every attempt.
type TelemetryFunc func(AttemptInfo)

// RetryConfig tunes the retry wrapper. Zero values take the defaults below.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget per call. Default: 3.
	MaxAttempts int

	// Sleep waits between attempts. Default honors context cancellation.
	// Tests inject a recording stub here.
	Sleep func(ctx context.Context, d time.Duration) error

	// Telemetry receives per-attempt latency/outcome events. Default logs
	// via Logger.
	Telemetry TelemetryFunc

	// Logger used for retry warnings. Default: slog.Default().
	Logger *slog.Logger
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = maxAttempts
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Telemetry == nil {
		log := c.Logger
		c.Telemetry = func(a AttemptInfo) {
			log.Debug("provider attempt",
				"provider", a.Provider,
				"model", a.Model,
				"attempt", a.Attempt,
				"duration_ms", a.Duration.Milliseconds(),
				"ok", a.Err == nil)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRetry wraps a provider with the retry/backoff policy. The returned
// provider surfaces a single classified *Error after exhausting the budget.
func WithRetry(inner Provider, cfg RetryConfig) Provider {
	cfg.applyDefaults()
	return &retryProvider{inner: inner, cfg: cfg}
}

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
}

func (r *retryProvider) Name() string         { return r.inner.Name() }
func (r *retryProvider) DefaultModel() string { return r.inner.DefaultModel() }

func (r *retryProvider) model(opts Options) string {
	if opts.Model != "" {
		return opts.Model
	}
	return r.inner.DefaultModel()
}

// Generate runs the attempt loop. Each call owns its own attempt counter.
func (r *retryProvider) Generate(ctx context.Context, messages []Message, opts Options) (Reply, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		reply, err := r.inner.Generate(ctx, messages, opts)
		r.cfg.Telemetry(AttemptInfo{
			Provider: r.inner.Name(),
			Model:    r.model(opts),
			Attempt:  attempt,
			Duration: time.Since(start),
			Err:      err,
		})
		if err == nil {
			return reply, nil
		}

		lastErr = Classify(r.inner.Name(), err)
		if !KindOf(lastErr).Retryable() || attempt == r.cfg.MaxAttempts {
			break
		}

		delay := computeDelay(attempt)
		r.cfg.Logger.Warn("retrying provider call",
			"provider", r.inner.Name(),
			"attempt", attempt,
			"kind", KindOf(lastErr).String(),
			"delay", delay)
		if err := r.cfg.Sleep(ctx, delay); err != nil {
			break
		}
	}
	return Reply{}, lastErr
}

// GenerateStream retries failed stream setup. Once any chunk has reached the
// sink the stream is committed: a later failure emits an inline Err chunk and
// is not retried. The sink sees exactly one terminator.
func (r *retryProvider) GenerateStream(ctx context.Context, messages []Message, opts Options, emit ChunkFunc) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		delivered := false
		forward := func(c Chunk) {
			delivered = true
			emit(c)
		}

		start := time.Now()
		err := r.inner.GenerateStream(ctx, messages, opts, forward)
		r.cfg.Telemetry(AttemptInfo{
			Provider: r.inner.Name(),
			Model:    r.model(opts),
			Attempt:  attempt,
			Duration: time.Since(start),
			Err:      err,
		})
		if err == nil {
			return nil
		}

		lastErr = Classify(r.inner.Name(), err)
		if delivered || !KindOf(lastErr).Retryable() || attempt == r.cfg.MaxAttempts {
			break
		}

		delay := computeDelay(attempt)
		r.cfg.Logger.Warn("retrying provider stream",
			"provider", r.inner.Name(),
			"attempt", attempt,
			"kind", KindOf(lastErr).String(),
			"delay", delay)
		if err := r.cfg.Sleep(ctx, delay); err != nil {
			break
		}
	}
	emit(Chunk{Err: lastErr})
	return lastErr
}

// Verify retryProvider implements Provider
var _ Provider = (*retryProvider)(nil)
