package orchestrator

import (
	"context"
	"time"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/errs"
)

// withRetry re-runs fn while it fails with a Kind in cfg's retryable-kinds
// allow-list, up to cfg.MaxRetries additional attempts, sleeping
// cfg.RetryDelaySeconds between attempts (doubling each time when
// cfg.BackoffDouble is set). A non-retryable error, or exhausting the
// retry budget, returns the last error unchanged.
func withRetry(ctx context.Context, cfg config.RetryConfig, fn func() error) error {
	allow := retryableKinds(cfg.RetryableKinds)
	delay := time.Duration(cfg.RetryDelaySeconds) * time.Second

	attempts := cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		kind, ok := errs.KindOf(lastErr)
		if !ok || !errs.Retryable(kind, allow) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		if cfg.BackoffDouble {
			delay *= 2
		}
	}
	return lastErr
}

func retryableKinds(names []string) []errs.Kind {
	kinds := make([]errs.Kind, len(names))
	for i, n := range names {
		kinds[i] = errs.Kind(n)
	}
	return kinds
}
