package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tglog"
)

var _ zerolog.LevelWriter = (*ZerologWriter)(nil)

// ZerologWriter is a zerolog sink that turns each JSON event into a record
// for a tglog handler. Combine it with other outputs via zerolog.MultiLevelWriter.
type ZerologWriter struct {
	handler  tglog.Handler
	minLevel zerolog.Level
	logger   string
}

// ZerologOption allows customizing writer behavior
type ZerologOption func(*ZerologWriter)

// WithZerologMinLevel drops events below level before they are parsed
func WithZerologMinLevel(level zerolog.Level) ZerologOption {
	return func(w *ZerologWriter) {
		w.minLevel = level
	}
}

// WithZerologName sets the logger name stamped on records
func WithZerologName(name string) ZerologOption {
	return func(w *ZerologWriter) {
		w.logger = name
	}
}

// NewZerologWriter creates a writer forwarding to h
func NewZerologWriter(h tglog.Handler, opts ...ZerologOption) *ZerologWriter {
	w := &ZerologWriter{
		handler:  h,
		minLevel: zerolog.TraceLevel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write handles events written without a level, taking it from the JSON body
func (w *ZerologWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter. It never fails: delivery
// problems are reported by the handler's error callback.
func (w *ZerologWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level != zerolog.NoLevel && level < w.minLevel {
		return len(p), nil
	}

	rec := parseZerologEvent(p, level)
	if level == zerolog.NoLevel && zerologLevel(rec.Level) < w.minLevel {
		return len(p), nil
	}
	rec.Logger = w.logger
	w.handler.Handle(rec)
	return len(p), nil
}

// parseZerologEvent decodes a JSON event line. Lines that are not JSON
// become the record message verbatim.
func parseZerologEvent(p []byte, level zerolog.Level) tglog.Record {
	rec := tglog.Record{Time: time.Now(), Level: tglogLevel(level)}

	var event map[string]any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		rec.Message = string(bytes.TrimSpace(p))
		return rec
	}

	if s, ok := event[zerolog.LevelFieldName].(string); ok && level == zerolog.NoLevel {
		if parsed, err := zerolog.ParseLevel(s); err == nil {
			rec.Level = tglogLevel(parsed)
		}
	}
	if s, ok := event[zerolog.TimestampFieldName].(string); ok {
		if t, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
			rec.Time = t
		}
	}
	if s, ok := event[zerolog.MessageFieldName].(string); ok {
		rec.Message = s
	}
	if stack, ok := event[zerolog.ErrorStackFieldName]; ok {
		rec.Trace = fmt.Sprint(stack)
	}

	keys := make([]string, 0, len(event))
	for k := range event {
		switch k {
		case zerolog.LevelFieldName, zerolog.TimestampFieldName,
			zerolog.MessageFieldName, zerolog.ErrorStackFieldName:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := event[k]
		if n, ok := v.(json.Number); ok {
			v = n.String()
		}
		rec.Fields = append(rec.Fields, k, v)
	}
	return rec
}

// tglogLevel maps zerolog levels onto the tglog scale
func tglogLevel(level zerolog.Level) int64 {
	switch {
	case level == zerolog.NoLevel, level == zerolog.Disabled:
		return tglog.LevelInfo
	case level <= zerolog.DebugLevel:
		return tglog.LevelDebug
	case level == zerolog.InfoLevel:
		return tglog.LevelInfo
	case level == zerolog.WarnLevel:
		return tglog.LevelWarn
	default:
		return tglog.LevelError
	}
}

// zerologLevel is the inverse of tglogLevel for filtering
func zerologLevel(level int64) zerolog.Level {
	switch {
	case level < tglog.LevelInfo:
		return zerolog.DebugLevel
	case level < tglog.LevelWarn:
		return zerolog.InfoLevel
	case level < tglog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
