package tglog

import (
	"time"
)

// Record is a single log entry handed to a handler. Records are values and are
// treated as immutable once passed to Handle.
type Record struct {
	Time    time.Time
	Level   int64
	Logger  string // Name of the emitting logger, optional
	Message string
	Fields  []any  // Alternating key/value pairs
	Trace   string // Call trace or exception text, optional
}

// NewRecord creates a record stamped with the current time
func NewRecord(level int64, message string, fields ...any) Record {
	return Record{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Fields:  fields,
	}
}

// WithLogger returns a copy of the record carrying the logger name
func (r Record) WithLogger(name string) Record {
	r.Logger = name
	return r
}

// WithTrace returns a copy of the record carrying a trace or exception text
func (r Record) WithTrace(trace string) Record {
	r.Trace = trace
	return r
}

// Caller returns the function call trace of the caller, depth frames deep,
// formatted as "outer -> inner". Depth is clamped to 10.
func Caller(depth int) string {
	const skipTrace = 2 // Caller -> getTrace
	if depth > maxTraceDepth {
		depth = maxTraceDepth
	}
	return getTrace(int64(depth), skipTrace)
}
