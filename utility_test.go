package tglog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"critical", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := Level(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LevelString(LevelWarn))
	assert.Equal(t, "ERROR", LevelString(LevelError))
}

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"key=value", "key", "value", false},
		{" key = value ", "key", "value", false},
		{"token=123:abc=", "token", "123:abc=", false},
		{"noequals", "", "", true},
		{"=value", "", "", true},
		{"key=", "key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseKeyValue(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantKey, key)
				assert.Equal(t, tt.wantValue, value)
			}
		})
	}
}

func TestFmtErrorf(t *testing.T) {
	err := fmtErrorf("bad %s", "thing")
	assert.Equal(t, "tglog: bad thing", err.Error())

	err = fmtErrorf("tglog: already prefixed")
	assert.Equal(t, "tglog: already prefixed", err.Error())

	wrapped := fmtErrorf("outer: %w", ErrClosed)
	assert.True(t, errors.Is(wrapped, ErrClosed))
}

func TestCombineErrors(t *testing.T) {
	e1 := errors.New("first")

	assert.Nil(t, combineErrors(nil, nil))
	assert.Equal(t, e1, combineErrors(e1, nil))
	assert.Equal(t, e1, combineErrors(nil, e1))

	combined := combineErrors(e1, ErrQueueFull)
	assert.Equal(t, "first; tglog: queue full", combined.Error())
	assert.True(t, errors.Is(combined, ErrQueueFull))
}

func TestGetTrace(t *testing.T) {
	assert.Empty(t, Caller(0))
	assert.Empty(t, getTrace(11, 1))

	trace := Caller(1)
	assert.Equal(t, "TestGetTrace", trace)

	func() {
		trace := Caller(2)
		assert.True(t, strings.HasPrefix(trace, "TestGetTrace -> "), trace)
		assert.Contains(t, trace, "anonymous")
	}()
}

func TestDiagnostics(t *testing.T) {
	var buf bytes.Buffer

	d := newDiagnostics(true)
	d.out = &buf
	d.logf("attempt %d", 1)
	d.logf("attempt %d", 2) // throttled
	assert.Equal(t, "tglog: attempt 1\n", buf.String())

	buf.Reset()
	off := newDiagnostics(false)
	off.out = &buf
	off.logf("hidden")
	assert.Empty(t, buf.String())

	var nilDiag *diagnostics
	require.NotPanics(t, func() { nilDiag.logf("nothing") })
}

func TestDiagnosticsThrottlePerKind(t *testing.T) {
	var buf bytes.Buffer

	d := newDiagnostics(true)
	d.out = &buf
	d.logf("delivery failed: %v", "boom")
	d.logf("delivery failed: %v", "again") // same kind, throttled
	d.logf("abandoned %d queued records at shutdown", 3)

	assert.Equal(t, "tglog: delivery failed: boom\ntglog: abandoned 3 queued records at shutdown\n", buf.String())
}

func TestCallerDepthClamped(t *testing.T) {
	deep := Caller(50)
	assert.NotEmpty(t, deep)
	assert.Equal(t, len(strings.Split(Caller(10), " -> ")), len(strings.Split(deep, " -> ")))
}
