// Package redisgate provides a tglog.RateLimiter backed by Redis, so that
// several processes posting with one bot token to one chat share the spacing.
package redisgate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/lixenwraith/tglog"
)

var _ tglog.RateLimiter = (*Limiter)(nil)

// DefaultPrefix namespaces gate keys
const DefaultPrefix = "tglog:gate:"

// minPoll bounds the wait when the key has no usable TTL
const minPoll = 10 * time.Millisecond

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Limiter claims the destination key with SET NX PX. Whoever holds the key
// owns the current interval; everyone else sleeps out its remaining TTL.
type Limiter struct {
	client   redis.Cmdable
	closer   func() error
	key      string
	interval time.Duration
}

// New connects to Redis and returns a limiter for the token/chat pair
func New(cfg Config, token, chatID string, interval time.Duration) (*Limiter, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redisgate: redis address is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("redisgate: interval must be positive: %v", interval)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisgate: redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	l := NewWithClient(client, prefix+Key(token, chatID), interval)
	l.closer = client.Close
	return l, nil
}

// NewWithClient uses an existing client. The caller keeps ownership of it.
func NewWithClient(client redis.Cmdable, key string, interval time.Duration) *Limiter {
	return &Limiter{client: client, key: key, interval: interval}
}

// Key derives the per-destination part of the gate key. The token is hashed
// so it never appears in Redis.
func Key(token, chatID string) string {
	sum := sha256.Sum256([]byte(token + "\x00" + chatID))
	return hex.EncodeToString(sum[:12])
}

// Acquire implements tglog.RateLimiter
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		ok, err := l.client.SetNX(ctx, l.key, "1", l.interval).Result()
		if err != nil {
			return fmt.Errorf("redisgate: claim %s: %w", l.key, err)
		}
		if ok {
			return nil
		}

		ttl, err := l.client.PTTL(ctx, l.key).Result()
		if err != nil {
			return fmt.Errorf("redisgate: ttl %s: %w", l.key, err)
		}
		// -1: key stored without expiry by someone else, bound it
		if ttl == -1 {
			if err := l.client.PExpire(ctx, l.key, l.interval).Err(); err != nil {
				return fmt.Errorf("redisgate: expire %s: %w", l.key, err)
			}
			ttl = l.interval
		}
		if ttl < minPoll {
			ttl = minPoll
		}

		timer := time.NewTimer(ttl)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Close releases the client when the limiter created it
func (l *Limiter) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}
