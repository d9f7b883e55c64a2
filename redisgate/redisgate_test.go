package redisgate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRedis keeps the gate key in memory. Only the commands the limiter uses
// are implemented; anything else hits the nil embedded interface.
type memRedis struct {
	redis.Cmdable

	mu       sync.Mutex
	held     bool
	expires  time.Time // Zero while held means no expiry
	denials  int       // SETNX refusals forced while PTTL reports a missing key
	setErr   error
	setCalls int
	expCalls int
}

func (m *memRedis) live() bool {
	if m.held && !m.expires.IsZero() && !time.Now().Before(m.expires) {
		m.held = false
	}
	return m.held
}

func (m *memRedis) SetNX(_ context.Context, _ string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++

	if m.setErr != nil {
		return redis.NewBoolResult(false, m.setErr)
	}
	if m.denials > 0 {
		m.denials--
		return redis.NewBoolResult(false, nil)
	}
	if m.live() {
		return redis.NewBoolResult(false, nil)
	}
	m.held = true
	m.expires = time.Now().Add(expiration)
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) PTTL(context.Context, string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case !m.live():
		return redis.NewDurationResult(-2, nil)
	case m.expires.IsZero():
		return redis.NewDurationResult(-1, nil)
	default:
		return redis.NewDurationResult(time.Until(m.expires), nil)
	}
}

func (m *memRedis) PExpire(_ context.Context, _ string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expCalls++

	if !m.live() {
		return redis.NewBoolResult(false, nil)
	}
	m.expires = time.Now().Add(expiration)
	return redis.NewBoolResult(true, nil)
}

func TestAcquireSpacing(t *testing.T) {
	const interval = 60 * time.Millisecond
	mem := &memRedis{}
	a := NewWithClient(mem, "gate", interval)
	b := NewWithClient(mem, "gate", interval)

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, a.Acquire(ctx))
	assert.Less(t, time.Since(start), interval/2)

	require.NoError(t, b.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), interval-5*time.Millisecond)
	assert.GreaterOrEqual(t, mem.setCalls, 3)
}

func TestAcquireBoundsKeyWithoutExpiry(t *testing.T) {
	const interval = 30 * time.Millisecond
	mem := &memRedis{held: true}
	l := NewWithClient(mem, "gate", interval)

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire stuck on a key without expiry")
	}
	assert.Equal(t, 1, mem.expCalls)
}

func TestAcquirePollFloor(t *testing.T) {
	mem := &memRedis{denials: 1}
	l := NewWithClient(mem, "gate", time.Second)

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), minPoll)
	assert.Equal(t, 2, mem.setCalls)
}

func TestAcquireCancelled(t *testing.T) {
	mem := &memRedis{}
	l := NewWithClient(mem, "gate", time.Hour)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquireRedisError(t *testing.T) {
	boom := errors.New("connection refused")
	l := NewWithClient(&memRedis{setErr: boom}, "gate", time.Second)

	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "claim gate")
}

func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("TGLOG_REDIS_ADDR")
	if addr == "" {
		t.Skip("TGLOG_REDIS_ADDR not set")
	}
	return addr
}

func testKey(t *testing.T) string {
	return fmt.Sprintf("tglog:test:%s:%d", t.Name(), time.Now().UnixNano())
}

func TestKey(t *testing.T) {
	k := Key("123:secret", "42")
	assert.Len(t, k, 24)
	assert.NotContains(t, k, "secret")
	assert.Equal(t, k, Key("123:secret", "42"))
	assert.NotEqual(t, k, Key("123:secret", "43"))
	// separator keeps token/chat boundaries distinct
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, "t", "c", time.Second)
	assert.ErrorContains(t, err, "address is required")

	_, err = New(Config{Addr: "localhost:6379"}, "t", "c", 0)
	assert.ErrorContains(t, err, "interval must be positive")
}

func TestLimiterSpacing(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: redisAddr(t)})
	defer client.Close()

	key := testKey(t)
	defer client.Del(context.Background(), key)

	interval := 200 * time.Millisecond
	a := NewWithClient(client, key, interval)
	b := NewWithClient(client, key, interval)

	ctx := context.Background()
	require.NoError(t, a.Acquire(ctx))

	start := time.Now()
	require.NoError(t, b.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), interval/2)
}

func TestLimiterCancel(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: redisAddr(t)})
	defer client.Close()

	key := testKey(t)
	defer client.Del(context.Background(), key)

	l := NewWithClient(client, key, 5*time.Second)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterBoundsKeyWithoutExpiry(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: redisAddr(t)})
	defer client.Close()

	ctx := context.Background()
	key := testKey(t)
	defer client.Del(ctx, key)

	require.NoError(t, client.Set(ctx, key, "x", 0).Err())

	l := NewWithClient(client, key, 100*time.Millisecond)
	require.NoError(t, l.Acquire(ctx))

	ttl, err := client.PTTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewOwnsClient(t *testing.T) {
	addr := redisAddr(t)

	l, err := New(Config{Addr: addr, Prefix: "tglog:test:own:"}, "tok", fmt.Sprint(time.Now().UnixNano()), 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, l.Acquire(context.Background()))
	assert.NoError(t, l.Close())
}
