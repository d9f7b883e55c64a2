package tglog

import (
	"sync"
	"unicode/utf8"

	"github.com/lixenwraith/tglog/formatter"
)

// Formatter renders a record into message text. Implementations must be safe
// for concurrent use when shared by a SyncHandler.
type Formatter interface {
	Format(rec Record) string
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc func(rec Record) string

// Format implements Formatter
func (f FormatterFunc) Format(rec Record) string {
	return f(rec)
}

// textFormatter adapts the formatter package to the Formatter interface
type textFormatter struct {
	mu sync.Mutex
	f  *formatter.Formatter
}

// NewTextFormatter creates the default formatter from a configuration:
// format style, timestamp and level visibility, and markup for the parse mode.
func NewTextFormatter(cfg *Config) Formatter {
	f := formatter.New().
		Type(cfg.Format).
		Markup(cfg.ParseMode).
		TimestampFormat(cfg.TimestampFormat).
		ShowTimestamp(cfg.ShowTimestamp).
		ShowLevel(cfg.ShowLevel)
	return &textFormatter{f: f}
}

// Format implements Formatter
func (t *textFormatter) Format(rec Record) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.f.Format(0, formatter.Entry{
		Time:    rec.Time,
		Level:   rec.Level,
		Logger:  rec.Logger,
		Message: rec.Message,
		Fields:  rec.Fields,
		Trace:   rec.Trace,
	}))
}

// SplitMessage splits text into consecutive chunks of at most MaxMessageLength
// characters. Concatenating the chunks reproduces text; empty text yields a
// single empty chunk.
func SplitMessage(text string) []string {
	return splitRunes(text, MaxMessageLength)
}

func splitRunes(text string, limit int) []string {
	if text == "" {
		return []string{""}
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/limit+1)
	start, count := 0, 0
	for i := range text {
		if count == limit {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:])
}

// Payload is the sendMessage request body
type Payload struct {
	ChatID                ChatID `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
}

// PreparePayload builds the request body for one chunk
func PreparePayload(dest Destination, chunk string) Payload {
	return Payload{
		ChatID:                dest.ChatID,
		Text:                  chunk,
		ParseMode:             string(dest.ParseMode),
		DisableWebPagePreview: dest.DisableWebPagePreview,
		DisableNotification:   dest.DisableNotification,
	}
}
