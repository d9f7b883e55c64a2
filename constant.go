package tglog

import (
	"time"
)

// Log level constants
const (
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelError int64 = 8
)

// Telegram Bot API limits
const (
	// Maximum text length of a single sendMessage call, in characters
	MaxMessageLength = 4096
	// Default API host
	DefaultAPIURL = "https://api.telegram.org"
	// Retry hint used when a 429 response carries none
	defaultRetryAfter = 1 * time.Second
	// Deepest call trace a record can carry
	maxTraceDepth = 10
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Interval between internal diagnostics of the same kind
	internalLogInterval = time.Second
)
