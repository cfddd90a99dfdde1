package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	// Jitter spreads each wait by up to this fraction either way (0.0 to 1.0).
	Jitter float64
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
	Jitter:      0.2,
}

// StatusError is an upstream HTTP failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// RetryDo runs fn until it succeeds, fails with a non-retryable error, the
// context ends, or MaxRetries is exhausted. Waits grow exponentially with
// jitter.
func RetryDo[T any](ctx context.Context, rc RetryConfig, log *logrus.Entry, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < rc.MaxRetries {
			wait := rc.backoff(attempt, rand.Float64())
			if log != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"attempt": attempt + 1,
					"wait":    wait,
				}).Debug("retrying")
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, fmt.Errorf("after %d retries: %w", rc.MaxRetries, lastErr)
}

// backoff is the wait after the given zero-based attempt. r in [0, 1) picks
// the point inside the jitter band; 0.5 is the unjittered wait.
func (rc RetryConfig) backoff(attempt int, r float64) time.Duration {
	wait := float64(rc.InitialWait) * math.Pow(rc.Multiplier, float64(attempt))
	if limit := float64(rc.MaxWait); wait > limit {
		wait = limit
	}
	if rc.Jitter > 0 {
		wait += wait * rc.Jitter * (r*2 - 1)
	}
	return time.Duration(wait)
}

// IsRetryable reports whether err is a transient network or upstream failure.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
