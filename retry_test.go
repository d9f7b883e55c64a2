package tglog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNext(t *testing.T) {
	exp := retryPolicy{strategy: RetryExponentialBackoff, max: 5, base: 100 * time.Millisecond, cap: time.Second}
	lin := retryPolicy{strategy: RetryLinearBackoff, max: 5, base: 100 * time.Millisecond, cap: time.Second}
	transportErr := errors.New("connection reset")

	tests := []struct {
		name    string
		policy  retryPolicy
		attempt int
		err     error
		want    time.Duration
		retry   bool
	}{
		{"exponential first", exp, 0, transportErr, 100 * time.Millisecond, true},
		{"exponential third", exp, 2, transportErr, 400 * time.Millisecond, true},
		{"exponential capped", exp, 4, transportErr, time.Second, true},
		{"linear second", lin, 1, transportErr, 200 * time.Millisecond, true},
		{"linear capped", lin, 4, &APIError{StatusCode: 503}, 500 * time.Millisecond, true},
		{"retry after wins", exp, 0, &RateLimitError{RetryAfter: 3 * time.Second}, 3 * time.Second, true},
		{"client error terminal", exp, 0, &APIError{StatusCode: 400}, 0, false},
		{"cancellation terminal", exp, 0, context.Canceled, 0, false},
		{"attempts exhausted", exp, 5, transportErr, 0, false},
		{"drop never retries", retryPolicy{strategy: RetryDrop, max: 5, base: time.Second, cap: time.Second}, 0, transportErr, 0, false},
		{"zero retries", retryPolicy{strategy: RetryExponentialBackoff}, 0, transportErr, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wait, ok := tt.policy.next(tt.attempt, tt.err)
			assert.Equal(t, tt.retry, ok)
			if tt.retry {
				assert.Equal(t, tt.want, wait)
			}
		})
	}
}

func TestSenderRetriesTemporaryFailures(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 2
	cfg.RetryBaseMs = 5
	cfg.RetryMaxMs = 20

	tr := &fakeTransport{respond: func(n int) (Response, error) {
		if n < 2 {
			return Response{StatusCode: 500, Body: []byte("oops")}, nil
		}
		return Response{StatusCode: 200}, nil
	}}
	collector := &errorCollector{}

	h, err := NewSyncHandler(cfg, WithTransport(tr), WithFormatter(messageOnly), WithErrorCallback(collector.callback))
	require.NoError(t, err)
	defer h.Close()

	h.Handle(NewRecord(LevelInfo, "eventually"))

	assert.Equal(t, 3, tr.calls())
	assert.Empty(t, collector.all())
	assert.Equal(t, uint64(1), h.Stats().Sent)
}

func TestSenderStopsAfterRetries(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 1
	cfg.RetryBaseMs = 5
	cfg.RetryMaxMs = 5
	cfg.RetryStrategy = "linear_backoff"

	tr := &fakeTransport{respond: func(int) (Response, error) {
		return Response{}, errors.New("dial failed")
	}}
	collector := &errorCollector{}

	h, err := NewSyncHandler(cfg, WithTransport(tr), WithErrorCallback(collector.callback))
	require.NoError(t, err)
	defer h.Close()

	h.Handle(NewRecord(LevelInfo, "lost"))

	assert.Equal(t, 2, tr.calls())
	errs := collector.all()
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "dial failed")
	assert.Equal(t, uint64(1), h.Stats().Failed)
}
