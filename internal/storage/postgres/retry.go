package postgres

import (
	"context"
	"log/slog"
	"time"

	"listing_harvester/internal/metrics"
)

// Refresher rebuilds a connection pool.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Retrier runs storage operations under the retry policy: retryable
// failures are retried with exponential backoff, and the pool is refreshed
// once on the middle attempt. Fatal failures return at once.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	refresher   Refresher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewRetrier(cfg RetryConfig, refresher Refresher, m *metrics.Metrics, logger *slog.Logger) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Retrier{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		refresher:   refresher,
		metrics:     m,
		logger:      logger.With("component", "db_retry"),
	}
}

// Do calls fn until it succeeds, fails fatally or the attempts run out.
// The returned error is an *OpError wrapping the last failure.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	refreshAt := r.maxAttempts / 2

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = classify(op, err)

		if ctx.Err() != nil || Classify(lastErr) != ClassRetryable {
			return lastErr
		}
		if attempt == r.maxAttempts-1 {
			break
		}

		r.logger.Warn("database operation failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", r.maxAttempts,
			"error", err,
		)
		r.metrics.DBRetried(op)

		if attempt == refreshAt && r.refresher != nil {
			if rerr := r.refresher.Refresh(ctx); rerr != nil {
				r.logger.Warn("pool refresh failed", "op", op, "error", rerr)
			}
		}

		backoff := r.baseDelay * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff):
		}
	}

	r.logger.Error("database operation failed", "op", op, "attempts", r.maxAttempts, "error", lastErr)
	return lastErr
}
