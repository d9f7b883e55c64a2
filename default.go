package tglog

import (
	"sync/atomic"
)

// Global instance for package-level functions. It discards until SetDefault.
var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger(nil))
}

// SetDefault replaces the logger used by the package-level functions
func SetDefault(l *Logger) {
	if l == nil {
		l = NewLogger(nil)
	}
	defaultLogger.Store(l)
}

// Default returns the logger used by the package-level functions
func Default() *Logger {
	return defaultLogger.Load()
}

// Shutdown closes the default logger's handler and resets it to discard
func Shutdown() error {
	l := defaultLogger.Swap(NewLogger(nil))
	return l.Close()
}

// Debug logs a message at debug level
func Debug(msg string, fields ...any) {
	Default().logSkip(LevelDebug, 0, 2, msg, fields)
}

// Info logs a message at info level
func Info(msg string, fields ...any) {
	Default().logSkip(LevelInfo, 0, 2, msg, fields)
}

// Warn logs a message at warning level
func Warn(msg string, fields ...any) {
	Default().logSkip(LevelWarn, 0, 2, msg, fields)
}

// Error logs a message at error level
func Error(msg string, fields ...any) {
	Default().logSkip(LevelError, 0, 2, msg, fields)
}

// ErrorTrace logs an error message with function call trace
func ErrorTrace(depth int, msg string, fields ...any) {
	Default().logSkip(LevelError, depth, 2, msg, fields)
}
