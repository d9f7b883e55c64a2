package tglog

import (
	"context"
	"encoding/json"
)

// sender turns one record into one or more sendMessage calls. Both handler
// variants share it and differ only in limiter and calling goroutine.
type sender struct {
	endpoint  string
	dest      Destination
	formatter Formatter
	limiter   RateLimiter
	retry     retryPolicy
	stats     *counters
}

func newSender(cfg *Config, o *options, limiter RateLimiter, stats *counters) (*sender, error) {
	dest, err := cfg.Destination()
	if err != nil {
		return nil, err
	}
	policy, err := newRetryPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return &sender{
		endpoint:  cfg.Endpoint(),
		dest:      dest,
		formatter: o.formatter,
		limiter:   limiter,
		retry:     policy,
		stats:     stats,
	}, nil
}

// deliver formats rec and sends its chunks in order, stopping at the first
// chunk that cannot be delivered. Panics from the formatter or transport are
// converted to errors.
func (s *sender) deliver(ctx context.Context, t Transport, rec Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmtErrorf("panic during delivery: %v", r)
		}
	}()

	for _, chunk := range SplitMessage(s.formatter.Format(rec)) {
		body, err := json.Marshal(PreparePayload(s.dest, chunk))
		if err != nil {
			return fmtErrorf("failed to encode payload: %w", err)
		}
		if err := s.send(ctx, t, body); err != nil {
			return err
		}
		s.stats.sent.Add(1)
	}
	return nil
}

// send posts one chunk, applying the retry policy to failures
func (s *sender) send(ctx context.Context, t Transport, body []byte) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}

		resp, err := t.Post(ctx, s.endpoint, body)
		if err == nil {
			err = classifyResponse(resp)
		}
		if err == nil {
			return nil
		}

		wait, ok := s.retry.next(attempt, err)
		if !ok {
			return err
		}
		if sleepContext(ctx, wait) != nil {
			return err
		}
	}
}
