package compat

import (
	"fmt"
	"os"
	"strings"

	"github.com/lixenwraith/tglog"
)

// FiberAdapter satisfies Fiber's CommonLogger, FormatLogger and WithLogger
// method sets (fiber/v2 log package) without importing fiber. Trace maps to
// debug; Fatal and Panic log at error with a marker field.
type FiberAdapter struct {
	logger       *tglog.Logger
	fatalHandler func(msg string)
	panicHandler func(msg string)
}

// NewFiberAdapter creates a new Fiber-compatible logger adapter
func NewFiberAdapter(logger *tglog.Logger, opts ...FiberOption) *FiberAdapter {
	adapter := &FiberAdapter{
		logger:       logger.Named("fiber"),
		fatalHandler: func(string) { os.Exit(1) },
		panicHandler: func(msg string) { panic(msg) },
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FiberOption allows customizing adapter behavior
type FiberOption func(*FiberAdapter)

// WithFiberFatalHandler sets a custom fatal handler
func WithFiberFatalHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.fatalHandler = handler
	}
}

// WithFiberPanicHandler sets a custom panic handler
func WithFiberPanicHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.panicHandler = handler
	}
}

type fiberSeverity int

const (
	fiberTrace fiberSeverity = iota
	fiberDebug
	fiberInfo
	fiberWarn
	fiberError
	fiberFatal
	fiberPanic
)

func (a *FiberAdapter) emit(sev fiberSeverity, msg string, fields []any) {
	switch sev {
	case fiberTrace:
		a.logger.Debug(msg, append([]any{"trace", true}, fields...)...)
	case fiberDebug:
		a.logger.Debug(msg, fields...)
	case fiberInfo:
		a.logger.Info(msg, fields...)
	case fiberWarn:
		a.logger.Warn(msg, fields...)
	case fiberError:
		a.logger.Error(msg, fields...)
	case fiberFatal:
		a.logger.Error(msg, append([]any{"fatal", true}, fields...)...)
		// Close drains the handler before the process goes away
		_ = a.logger.Close()
		if a.fatalHandler != nil {
			a.fatalHandler(msg)
		}
	case fiberPanic:
		// The panic may be recovered, so the handler stays open
		a.logger.Error(msg, append([]any{"panic", true}, fields...)...)
		if a.panicHandler != nil {
			a.panicHandler(msg)
		}
	}
}

func (a *FiberAdapter) Trace(v ...any) { a.emit(fiberTrace, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Debug(v ...any) { a.emit(fiberDebug, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Info(v ...any)  { a.emit(fiberInfo, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Warn(v ...any)  { a.emit(fiberWarn, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Error(v ...any) { a.emit(fiberError, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Fatal(v ...any) { a.emit(fiberFatal, fmt.Sprint(v...), nil) }
func (a *FiberAdapter) Panic(v ...any) { a.emit(fiberPanic, fmt.Sprint(v...), nil) }

func (a *FiberAdapter) Tracef(format string, v ...any) {
	a.emit(fiberTrace, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Debugf(format string, v ...any) {
	a.emit(fiberDebug, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Infof(format string, v ...any) {
	a.emit(fiberInfo, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Warnf(format string, v ...any) {
	a.emit(fiberWarn, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Errorf(format string, v ...any) {
	a.emit(fiberError, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Fatalf(format string, v ...any) {
	a.emit(fiberFatal, fmt.Sprintf(format, v...), nil)
}
func (a *FiberAdapter) Panicf(format string, v ...any) {
	a.emit(fiberPanic, fmt.Sprintf(format, v...), nil)
}

func (a *FiberAdapter) Tracew(msg string, kv ...any) { a.emit(fiberTrace, msg, kv) }
func (a *FiberAdapter) Debugw(msg string, kv ...any) { a.emit(fiberDebug, msg, kv) }
func (a *FiberAdapter) Infow(msg string, kv ...any)  { a.emit(fiberInfo, msg, kv) }
func (a *FiberAdapter) Warnw(msg string, kv ...any)  { a.emit(fiberWarn, msg, kv) }
func (a *FiberAdapter) Errorw(msg string, kv ...any) { a.emit(fiberError, msg, kv) }
func (a *FiberAdapter) Fatalw(msg string, kv ...any) { a.emit(fiberFatal, msg, kv) }
func (a *FiberAdapter) Panicw(msg string, kv ...any) { a.emit(fiberPanic, msg, kv) }

// Write lets the adapter stand in as fiber's io.Writer output
func (a *FiberAdapter) Write(p []byte) (int, error) {
	a.emit(fiberInfo, strings.TrimRight(string(p), "\n"), nil)
	return len(p), nil
}
