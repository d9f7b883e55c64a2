package compat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tglog"
)

// captureHandler records everything it is given
type captureHandler struct {
	mu      sync.Mutex
	records []tglog.Record
	closes  int
}

func (c *captureHandler) Handle(rec tglog.Record) {
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
}

func (c *captureHandler) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

func (c *captureHandler) last(t *testing.T) tglog.Record {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.records)
	return c.records[len(c.records)-1]
}

func (c *captureHandler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// nopTransport accepts every post
type nopTransport struct{}

func (nopTransport) Post(context.Context, string, []byte) (tglog.Response, error) {
	return tglog.Response{StatusCode: 200}, nil
}
func (nopTransport) Close() error { return nil }

// TestCompatBuilder verifies the compatibility builder resolves its logger correctly
func TestCompatBuilder(t *testing.T) {
	t.Run("with handler", func(t *testing.T) {
		h := &captureHandler{}
		builder := NewBuilder().WithHandler(h)

		l, err := builder.GetLogger()
		require.NoError(t, err)
		assert.Equal(t, h, l.Handler())

		gnetAdapter, err := builder.BuildGnet()
		require.NoError(t, err)
		assert.NotNil(t, gnetAdapter)
	})

	t.Run("with config", func(t *testing.T) {
		cfg := tglog.DefaultConfig()
		cfg.Token = "1:x"
		cfg.ChatID = "42"

		builder := NewBuilder().WithConfig(cfg, tglog.WithTransport(nopTransport{}))
		fasthttpAdapter, err := builder.BuildFastHTTP()
		require.NoError(t, err)
		assert.NotNil(t, fasthttpAdapter)

		l, err := builder.GetLogger()
		require.NoError(t, err)
		assert.IsType(t, &tglog.AsyncHandler{}, l.Handler())
		assert.NoError(t, l.Close())
	})

	t.Run("nothing provided", func(t *testing.T) {
		_, err := NewBuilder().BuildSlog()
		assert.Error(t, err)
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBuilder().WithLogger(nil).BuildZerolog()
		assert.ErrorContains(t, err, "cannot be nil")
	})
}

func TestGnetAdapter(t *testing.T) {
	h := &captureHandler{}
	var fatalMsg string
	adapter := NewGnetAdapter(tglog.NewLogger(h), WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))

	adapter.Debugf("debug %d", 1)
	adapter.Infof("listening on %s", ":9000")
	rec := h.last(t)
	assert.Equal(t, tglog.LevelInfo, rec.Level)
	assert.Equal(t, "gnet", rec.Logger)
	assert.Equal(t, "listening on :9000", rec.Message)

	adapter.Warnf("slow loop")
	assert.Equal(t, tglog.LevelWarn, h.last(t).Level)
	adapter.Errorf("accept: %v", "EMFILE")
	assert.Equal(t, tglog.LevelError, h.last(t).Level)

	adapter.Fatalf("engine stopped: %s", "boom")
	rec = h.last(t)
	assert.Equal(t, tglog.LevelError, rec.Level)
	assert.Equal(t, []any{"fatal", true}, rec.Fields)
	assert.Equal(t, "engine stopped: boom", fatalMsg)
	assert.Equal(t, 1, h.closes)
	assert.Equal(t, 5, h.count())
}

func TestStructuredGnetAdapter(t *testing.T) {
	h := &captureHandler{}
	adapter := NewStructuredGnetAdapter(tglog.NewLogger(h))

	adapter.Infof("accepted conn addr=%s fd=%d", "10.0.0.1:5000", 7)
	rec := h.last(t)
	assert.Equal(t, "accepted conn", rec.Message)
	assert.Equal(t, []any{"addr", "10.0.0.1:5000", "fd", 7}, rec.Fields)

	adapter.Warnf("closing %s with fd=%d", "conn", 3)
	rec = h.last(t)
	assert.Equal(t, "closing conn with fd=3", rec.Message)
	assert.Nil(t, rec.Fields)
}

func TestParseFormat(t *testing.T) {
	msg, fields := parseFormat("no verbs", nil)
	assert.Equal(t, "no verbs", msg)
	assert.Nil(t, fields)

	msg, fields = parseFormat("loop: %d, events: %d done", []any{1, 2})
	assert.Equal(t, "done", msg)
	assert.Equal(t, []any{"loop", 1, "events", 2}, fields)
}

func TestFastHTTPAdapter(t *testing.T) {
	h := &captureHandler{}
	adapter := NewFastHTTPAdapter(tglog.NewLogger(h))

	adapter.Printf("error when serving connection %q: %v", "1.2.3.4", "reset")
	rec := h.last(t)
	assert.Equal(t, tglog.LevelError, rec.Level)
	assert.Equal(t, "fasthttp", rec.Logger)
	assert.Equal(t, `error when serving connection "1.2.3.4": reset`, rec.Message)

	adapter.Printf("read timeout")
	assert.Equal(t, tglog.LevelWarn, h.last(t).Level)

	adapter.Printf("served")
	assert.Equal(t, tglog.LevelInfo, h.last(t).Level)

	quiet := NewFastHTTPAdapter(tglog.NewLogger(h), WithDefaultLevel(tglog.LevelDebug))
	quiet.Printf("served")
	assert.Equal(t, tglog.LevelDebug, h.last(t).Level)
}

func TestDetectLogLevel(t *testing.T) {
	tests := map[string]int64{
		"panic recovered":     tglog.LevelError,
		"Deprecated header":   tglog.LevelWarn,
		"trace id abc":        tglog.LevelDebug,
		"request completed":   tglog.LevelInfo,
		"failed to read body": tglog.LevelError,
	}
	for msg, want := range tests {
		assert.Equal(t, want, DetectLogLevel(msg), msg)
	}
}

func TestZerologWriter(t *testing.T) {
	h := &captureHandler{}
	w := NewZerologWriter(h, WithZerologMinLevel(zerolog.WarnLevel), WithZerologName("app"))
	logger := zerolog.New(w)

	logger.Info().Msg("ignored")
	assert.Equal(t, 0, h.count())

	logger.Warn().Str("k", "v").Int("n", 3).Msg("disk almost full")
	rec := h.last(t)
	assert.Equal(t, tglog.LevelWarn, rec.Level)
	assert.Equal(t, "app", rec.Logger)
	assert.Equal(t, "disk almost full", rec.Message)
	assert.Equal(t, []any{"k", "v", "n", "3"}, rec.Fields)

	logger.Error().Err(fmt.Errorf("no space")).Msg("write failed")
	rec = h.last(t)
	assert.Equal(t, tglog.LevelError, rec.Level)
	assert.Equal(t, []any{zerolog.ErrorFieldName, "no space"}, rec.Fields)
}

func TestZerologWriterPlainWrite(t *testing.T) {
	h := &captureHandler{}
	w := NewZerologWriter(h)

	n, err := w.Write([]byte("not json\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	rec := h.last(t)
	assert.Equal(t, "not json", rec.Message)
	assert.Equal(t, tglog.LevelInfo, rec.Level)

	_, err = w.Write([]byte(`{"level":"error","message":"from json"}`))
	require.NoError(t, err)
	assert.Equal(t, tglog.LevelError, h.last(t).Level)
}

func TestSlogHandler(t *testing.T) {
	h := &captureHandler{}
	logger := slog.New(NewSlogHandler(h, WithSlogName("svc")))

	logger.Debug("hidden")
	assert.Equal(t, 0, h.count())

	logger.With("env", "prod").WithGroup("req").Warn("slow request", "id", 7, slog.Group("db", "ms", 120))
	rec := h.last(t)
	assert.Equal(t, tglog.LevelWarn, rec.Level)
	assert.Equal(t, "svc", rec.Logger)
	assert.Equal(t, "slow request", rec.Message)
	assert.Equal(t, []any{"env", "prod", "req.id", int64(7), "req.db.ms", int64(120)}, rec.Fields)
	assert.False(t, rec.Time.IsZero())
}

func TestSlogHandlerLevel(t *testing.T) {
	h := &captureHandler{}
	logger := slog.New(NewSlogHandler(h, WithSlogLevel(slog.LevelError)))

	logger.Warn("no")
	logger.Error("yes")
	assert.Equal(t, 1, h.count())
	assert.Equal(t, tglog.LevelError, h.last(t).Level)
}

func TestFiberAdapter(t *testing.T) {
	h := &captureHandler{}
	var fatalMsg, panicMsg string
	adapter := NewFiberAdapter(tglog.NewLogger(h),
		WithFiberFatalHandler(func(msg string) { fatalMsg = msg }),
		WithFiberPanicHandler(func(msg string) { panicMsg = msg }),
	)

	adapter.Trace("entering ", "route")
	rec := h.last(t)
	assert.Equal(t, tglog.LevelDebug, rec.Level)
	assert.Equal(t, "fiber", rec.Logger)
	assert.Equal(t, "entering route", rec.Message)
	assert.Equal(t, []any{"trace", true}, rec.Fields)

	adapter.Warnf("slow handler %dms", 900)
	rec = h.last(t)
	assert.Equal(t, tglog.LevelWarn, rec.Level)
	assert.Equal(t, "slow handler 900ms", rec.Message)

	adapter.Errorw("request failed", "status", 500)
	rec = h.last(t)
	assert.Equal(t, tglog.LevelError, rec.Level)
	assert.Equal(t, []any{"status", 500}, rec.Fields)

	_, err := adapter.Write([]byte("written line\n"))
	require.NoError(t, err)
	assert.Equal(t, "written line", h.last(t).Message)

	adapter.Panicw("bad state", "k", "v")
	assert.Equal(t, []any{"panic", true, "k", "v"}, h.last(t).Fields)
	assert.Equal(t, "bad state", panicMsg)
	assert.Equal(t, 0, h.closes)

	adapter.Fatal("shutting down")
	assert.Equal(t, []any{"fatal", true}, h.last(t).Fields)
	assert.Equal(t, "shutting down", fatalMsg)
	assert.Equal(t, 1, h.closes)
}
