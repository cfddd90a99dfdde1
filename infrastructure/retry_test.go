package infrastructure

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastRetry = RetryConfig{MaxRetries: 2, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}

func TestRetryDo_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, testLogger(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, testLogger(), func() (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusBadRequest}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDo_GivesUp(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, nil, func() (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusTooManyRequests}
	})
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 3, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.True(t, IsRetryable(&StatusError{StatusCode: 502}))
}

func TestRetryConfig_BackoffJitter(t *testing.T) {
	rc := RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2, Jitter: 0.2}

	assert.Equal(t, 100*time.Millisecond, rc.backoff(0, 0.5))
	assert.Equal(t, 80*time.Millisecond, rc.backoff(0, 0))
	assert.Equal(t, 400*time.Millisecond, rc.backoff(2, 0.5))
	assert.Equal(t, time.Second, rc.backoff(10, 0.5), "capped at MaxWait")

	for i := 0; i < 100; i++ {
		wait := rc.backoff(3, rand.Float64())
		assert.GreaterOrEqual(t, wait, 640*time.Millisecond)
		assert.Less(t, wait, 960*time.Millisecond)
	}

	rc.Jitter = 0
	assert.Equal(t, 200*time.Millisecond, rc.backoff(1, 0.99))
}
