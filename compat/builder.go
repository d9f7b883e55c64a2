package compat

import (
	"fmt"

	"github.com/lixenwraith/tglog"
)

// Builder provides a flexible way to create logging adapters that forward to Telegram.
// It can use an existing *tglog.Logger, wrap a tglog.Handler, or create an
// async handler from a *tglog.Config.
type Builder struct {
	logger *tglog.Logger
	cfg    *tglog.Config
	opts   []tglog.Option
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters.
// If this is set WithHandler and WithConfig are ignored.
func (b *Builder) WithLogger(l *tglog.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("tglog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithHandler wraps an existing handler in a logger
func (b *Builder) WithHandler(h tglog.Handler) *Builder {
	if h == nil {
		b.err = fmt.Errorf("tglog/compat: provided handler cannot be nil")
		return b
	}
	if b.logger == nil {
		b.logger = tglog.NewLogger(h)
	}
	return b
}

// WithConfig provides a configuration for a new async handler.
// This is used only if neither a logger nor a handler was provided.
func (b *Builder) WithConfig(cfg *tglog.Config, opts ...tglog.Option) *Builder {
	b.cfg = cfg
	b.opts = opts
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*tglog.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		return b.logger, nil
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("tglog/compat: a logger, handler, or config is required")
	}

	h, err := tglog.NewAsyncHandler(b.cfg, b.opts...)
	if err != nil {
		return nil, err
	}

	// Cache the newly created logger for subsequent builds with this builder
	b.logger = tglog.NewLogger(h)
	return b.logger, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildStructuredGnet creates a gnet adapter that extracts key=value fields
// from format strings
func (b *Builder) BuildStructuredGnet(opts ...GnetOption) (*StructuredGnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewStructuredGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// BuildFiber creates a Fiber v2 adapter
func (b *Builder) BuildFiber(opts ...FiberOption) (*FiberAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFiberAdapter(l, opts...), nil
}

// BuildZerolog creates a zerolog writer
func (b *Builder) BuildZerolog(opts ...ZerologOption) (*ZerologWriter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewZerologWriter(l.Handler(), opts...), nil
}

// BuildSlog creates a log/slog handler
func (b *Builder) BuildSlog(opts ...SlogOption) (*SlogHandler, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewSlogHandler(l.Handler(), opts...), nil
}

// GetLogger returns the underlying *tglog.Logger instance
func (b *Builder) GetLogger() (*tglog.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	cfg, err := tglog.NewConfigFromFile("tglog.toml")
//	if err != nil { /* handle error */ }
//
//	builder := compat.NewBuilder().WithConfig(cfg)
//	alerts, _ := builder.GetLogger()
//	defer alerts.Close()
//
//	// gnet: passed directly into the gnet options
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	// fasthttp: assigned to the server's Logger field
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	// zerolog: warnings and above also go to the chat
//	tg, _ := builder.BuildZerolog(compat.WithZerologMinLevel(zerolog.WarnLevel))
//	log := zerolog.New(zerolog.MultiLevelWriter(os.Stderr, tg))
//
//	// slog
//	slog.SetDefault(slog.New(must(builder.BuildSlog())))
