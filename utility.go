package tglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/lixenwraith/tglog/formatter"
)

// getTrace returns a function call trace string.
func getTrace(depth int64, skip int) string {
	if depth <= 0 || depth > maxTraceDepth {
		return ""
	}
	pc := make([]uintptr, int(depth)+skip)
	n := runtime.Callers(skip+1, pc) // +1 because Callers includes its own frame
	if n == 0 {
		return "(unknown)"
	}
	frames := runtime.CallersFrames(pc[:n])
	var trace []string
	for len(trace) < int(depth) {
		frame, more := frames.Next()
		funcName := filepath.Base(frame.Function)
		parts := strings.Split(funcName, ".")
		lastPart := parts[len(parts)-1]
		if strings.HasPrefix(lastPart, "func") && len(lastPart) > 4 && isDigits(lastPart[4:]) {
			funcName = fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
		} else {
			funcName = lastPart
		}
		if funcName != "" {
			trace = append(trace, funcName)
		}
		if !more {
			break
		}
	}
	if len(trace) == 0 {
		return "(unknown)"
	}
	// Reverse for caller -> callee order
	for i, j := 0, len(trace)-1; i < j; i, j = i+1, j-1 {
		trace[i], trace[j] = trace[j], trace[i]
	}
	return strings.Join(trace, " -> ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "tglog: ") {
		format = "tglog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// Level converts level string to numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, error)", levelStr)
	}
}

// LevelString converts a numeric level to its display name.
func LevelString(level int64) string {
	return formatter.LevelToString(level)
}

// diagnostics writes the library's own problems to stderr when enabled.
// Output is throttled per message kind (its format string), so a failing
// endpoint cannot flood the console nor hide a one-off shutdown report.
type diagnostics struct {
	enabled   bool
	out       io.Writer
	mu        sync.Mutex
	throttles map[string]*rate.Sometimes
}

func newDiagnostics(enabled bool) *diagnostics {
	return &diagnostics{
		enabled:   enabled,
		out:       os.Stderr,
		throttles: make(map[string]*rate.Sometimes),
	}
}

func (d *diagnostics) throttle(kind string) *rate.Sometimes {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.throttles[kind]
	if !ok {
		s = &rate.Sometimes{Interval: internalLogInterval}
		d.throttles[kind] = s
	}
	return s
}

// logf handles writing internal diagnostics, if enabled.
func (d *diagnostics) logf(format string, args ...any) {
	if d == nil || !d.enabled {
		return
	}

	kind := format
	// Ensure consistent "tglog: " prefix
	if !strings.HasPrefix(format, "tglog: ") {
		format = "tglog: " + format
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}

	d.throttle(kind).Do(func() {
		fmt.Fprintf(d.out, format, args...)
	})
}
