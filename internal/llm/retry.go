package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/pdf2sheet/internal/common"
)

// RetryPolicy bounds provider retries with exponential backoff. The policy
// is injected into the client so tests can use a fake clock-free delay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the run-wide defaults: up to 3 attempts,
// 500ms base delay doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do runs fn until it succeeds, fails with a non-provider error, or attempts
// are exhausted. Only errors matching common.ErrProvider are retried. The
// wait is context-aware; cancellation during backoff returns ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, common.ErrProvider) || attempt >= p.MaxAttempts {
			return err
		}

		backoff := time.Duration(1<<(attempt-1)) * p.BaseDelay
		logger.Warn("llm.retry.backoff",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay_ms", backoff.Milliseconds(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
