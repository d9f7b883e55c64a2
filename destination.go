package tglog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ChatID identifies the target chat. Numeric ids (including negative group
// ids) are sent as JSON numbers, anything else such as "@channelname" as a
// JSON string.
type ChatID string

// ChatIDInt creates a ChatID from a numeric id
func ChatIDInt(id int64) ChatID {
	return ChatID(strconv.FormatInt(id, 10))
}

// Int returns the numeric id and whether the id is numeric
func (c ChatID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(c), 10, 64)
	return n, err == nil
}

// MarshalJSON implements json.Marshaler
func (c ChatID) MarshalJSON() ([]byte, error) {
	if n, ok := c.Int(); ok {
		return strconv.AppendInt(nil, n, 10), nil
	}
	return json.Marshal(string(c))
}

// ParseMode selects how Telegram interprets message markup
type ParseMode string

const (
	ParseModeHTML       ParseMode = "HTML"
	ParseModeMarkdown   ParseMode = "MARKDOWN"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
)

// ParseParseMode parses a parse mode name, case-insensitively
func ParseParseMode(s string) (ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return ParseModeHTML, nil
	case "markdown":
		return ParseModeMarkdown, nil
	case "markdownv2", "markdown_v2":
		return ParseModeMarkdownV2, nil
	default:
		return "", fmtErrorf("invalid parse_mode: '%s' (use HTML, MARKDOWN, or MarkdownV2)", s)
	}
}

// RetryStrategy selects how failed deliveries are retried
type RetryStrategy string

const (
	RetryExponentialBackoff RetryStrategy = "exponential_backoff"
	RetryLinearBackoff      RetryStrategy = "linear_backoff"
	RetryDrop               RetryStrategy = "drop"
)

// ParseRetryStrategy parses a retry strategy name
func ParseRetryStrategy(s string) (RetryStrategy, error) {
	switch RetryStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case RetryExponentialBackoff:
		return RetryExponentialBackoff, nil
	case RetryLinearBackoff:
		return RetryLinearBackoff, nil
	case RetryDrop:
		return RetryDrop, nil
	default:
		return "", fmtErrorf("invalid retry_strategy: '%s' (use exponential_backoff, linear_backoff, or drop)", s)
	}
}

// Destination is the target chat plus its per-handler delivery options.
// It is fixed for the lifetime of a handler.
type Destination struct {
	ChatID                ChatID
	ParseMode             ParseMode
	DisableWebPagePreview bool
	DisableNotification   bool
}
