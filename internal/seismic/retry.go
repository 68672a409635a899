package seismic

import (
	"context"
	"errors"
	"time"

	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
)

// RetryPolicy bounds each external call.
type RetryPolicy struct {
	// Timeout applies to each attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Backoff is the base delay; attempt i waits Backoff×2^i.
	Backoff time.Duration
}

// DefaultRetryPolicy mirrors the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Timeout: 15 * time.Second, MaxRetries: 2, Backoff: 200 * time.Millisecond}
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	return !errors.Is(err, ErrNoMatch)
}

// do runs op with a per-attempt timeout and exponential backoff. It returns
// the parent context's error as soon as the parent is done, and a
// LookupError once attempts are exhausted.
func do[T any](ctx context.Context, p RetryPolicy, service string, log *logger.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := 0

	for i := 0; i <= p.MaxRetries; i++ {
		if i > 0 {
			delay := time.Duration(1<<(i-1)) * p.Backoff
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		attempts++
		timer := metrics.NewTimer()
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		v, err := op(attemptCtx)
		cancel()

		if err == nil {
			metrics.RecordLookup(service, "success", timer.Duration())
			return v, nil
		}
		if ctx.Err() != nil {
			metrics.RecordLookup(service, "cancelled", timer.Duration())
			return zero, ctx.Err()
		}

		metrics.RecordLookup(service, "error", timer.Duration())
		lastErr = err
		log.Warn("External lookup attempt failed", map[string]interface{}{
			"service": service,
			"attempt": attempts,
			"error":   err.Error(),
		})
		if !retryable(err) {
			break
		}
	}

	return zero, &models.LookupError{Service: service, Attempts: attempts, Err: lastErr}
}
