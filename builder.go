package tglog

import (
	"time"
)

// Builder provides a fluent API for building handlers.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg    *Config
	opts   []Option
	async  bool
	queued bool
	err    error // Accumulate errors for deferred handling
}

// NewBuilder creates a new builder with default configuration values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// NewBuilderFromConfig starts from an existing configuration, which is copied.
func NewBuilderFromConfig(cfg *Config) *Builder {
	return &Builder{
		cfg: cfg.Clone(),
	}
}

// Build creates the handler. By default it is a SyncHandler; Async and Queued
// select the background variants, and both may be combined.
func (b *Builder) Build() (Handler, error) {
	if b.err != nil {
		return nil, b.err
	}

	var inner Handler
	var err error
	if b.async {
		inner, err = NewAsyncHandler(b.cfg, b.opts...)
	} else {
		inner, err = NewSyncHandler(b.cfg, b.opts...)
	}
	if err != nil {
		return nil, err
	}

	if !b.queued {
		return inner, nil
	}
	queued, err := NewQueuedHandler(inner, b.cfg, b.opts...)
	if err != nil {
		return nil, combineErrors(err, inner.Close())
	}
	return queued, nil
}

// Config returns a copy of the configuration built so far
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Token sets the bot token.
func (b *Builder) Token(token string) *Builder {
	b.cfg.Token = token
	return b
}

// ChatID sets the target chat, numeric or "@channel".
func (b *Builder) ChatID(id string) *Builder {
	b.cfg.ChatID = id
	return b
}

// ChatIDInt sets a numeric target chat.
func (b *Builder) ChatIDInt(id int64) *Builder {
	b.cfg.ChatID = string(ChatIDInt(id))
	return b
}

// APIURL sets the Bot API base URL.
func (b *Builder) APIURL(u string) *Builder {
	b.cfg.APIURL = u
	return b
}

// ParseMode sets the message parse mode from its name.
func (b *Builder) ParseMode(mode string) *Builder {
	if b.err != nil {
		return b
	}
	m, err := ParseParseMode(mode)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.ParseMode = string(m)
	return b
}

// DisableWebPagePreview toggles link previews.
func (b *Builder) DisableWebPagePreview(disable bool) *Builder {
	b.cfg.DisableWebPagePreview = disable
	return b
}

// DisableNotification toggles silent messages.
func (b *Builder) DisableNotification(disable bool) *Builder {
	b.cfg.DisableNotification = disable
	return b
}

// Retry sets the retry strategy and the number of retries per chunk.
func (b *Builder) Retry(strategy string, maxRetries int64) *Builder {
	if b.err != nil {
		return b
	}
	s, err := ParseRetryStrategy(strategy)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.RetryStrategy = string(s)
	b.cfg.MaxRetries = maxRetries
	return b
}

// Level sets the minimum level delivered.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the minimum level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// MinInterval sets the spacing between sends.
func (b *Builder) MinInterval(d time.Duration) *Builder {
	b.cfg.MinIntervalMs = d.Milliseconds()
	return b
}

// QueueSize sets the buffer capacity used by Queued.
func (b *Builder) QueueSize(size int64) *Builder {
	b.cfg.QueueSize = size
	return b
}

// Override applies "key=value" overrides.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.cfg.ApplyOverride(overrides...)
	return b
}

// Async selects delivery from a background worker.
func (b *Builder) Async() *Builder {
	b.async = true
	return b
}

// Queued puts a bounded queue in front of the handler.
func (b *Builder) Queued() *Builder {
	b.queued = true
	return b
}

// OnError sets the delivery error callback.
func (b *Builder) OnError(fn func(error)) *Builder {
	b.opts = append(b.opts, WithErrorCallback(fn))
	return b
}

// With appends handler options.
func (b *Builder) With(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Example usage:
// handler, err := tglog.NewBuilder().
//
//	Token(os.Getenv("TG_TOKEN")).
//	ChatIDInt(-100123456789).
//	LevelString("warn").
//	Async().
//	Build()
//
// if err == nil {
//
//	 defer handler.Close()
//	 handler.Handle(tglog.NewRecord(tglog.LevelError, "disk full"))
//
// }
