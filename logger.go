package tglog

import (
	"time"
)

// Logger is a small leveled front end producing Records for a Handler. It is
// a convenience for programs that have no other logging framework to attach
// the handler to.
type Logger struct {
	handler Handler
	name    string
	now     func() time.Time
}

// NewLogger creates a logger emitting to h. A nil handler discards records.
func NewLogger(h Handler) *Logger {
	return &Logger{handler: h, now: time.Now}
}

// Named returns a copy of the logger that stamps records with name
func (l *Logger) Named(name string) *Logger {
	c := *l
	c.name = name
	return &c
}

// Handler returns the handler records are sent to
func (l *Logger) Handler() Handler {
	return l.handler
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, fields ...any) {
	l.log(LevelDebug, 0, msg, fields)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, fields ...any) {
	l.log(LevelInfo, 0, msg, fields)
}

// Warn logs a message at warning level.
func (l *Logger) Warn(msg string, fields ...any) {
	l.log(LevelWarn, 0, msg, fields)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, fields ...any) {
	l.log(LevelError, 0, msg, fields)
}

// DebugTrace logs a debug message with function call trace.
func (l *Logger) DebugTrace(depth int, msg string, fields ...any) {
	l.log(LevelDebug, depth, msg, fields)
}

// InfoTrace logs an info message with function call trace.
func (l *Logger) InfoTrace(depth int, msg string, fields ...any) {
	l.log(LevelInfo, depth, msg, fields)
}

// WarnTrace logs a warning message with function call trace.
func (l *Logger) WarnTrace(depth int, msg string, fields ...any) {
	l.log(LevelWarn, depth, msg, fields)
}

// ErrorTrace logs an error message with function call trace.
func (l *Logger) ErrorTrace(depth int, msg string, fields ...any) {
	l.log(LevelError, depth, msg, fields)
}

// Close closes the underlying handler
func (l *Logger) Close() error {
	if l.handler == nil {
		return nil
	}
	return l.handler.Close()
}

// log builds the record. Trace frames start at the caller of the exported method.
func (l *Logger) log(level int64, depth int, msg string, fields []any) {
	l.logSkip(level, depth, 3, msg, fields)
}

func (l *Logger) logSkip(level int64, depth, skip int, msg string, fields []any) {
	if l == nil || l.handler == nil {
		return
	}
	rec := Record{
		Time:    l.now(),
		Level:   level,
		Logger:  l.name,
		Message: msg,
		Fields:  fields,
	}
	if depth > 0 {
		rec.Trace = getTrace(int64(depth), skip+1)
	}
	l.handler.Handle(rec)
}
