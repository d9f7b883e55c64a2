package compat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lixenwraith/tglog"
)

// keyValuePattern detects "key=%v" or "key: %v" verbs in format strings
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGpbcU]`)

// parseFormat splits a printf-style call into a message and key/value fields.
// Calls without recognizable pairs become a plain message.
func parseFormat(format string, args []any) (string, []any) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || len(matches) != len(args) || strings.Count(format, "%") != len(args) {
		return fmt.Sprintf(format, args...), nil
	}

	fields := make([]any, 0, len(matches)*2)
	var msg strings.Builder
	lastEnd := 0

	for i, match := range matches {
		if prefix := strings.TrimSpace(format[lastEnd:match[0]]); prefix != "" {
			if msg.Len() > 0 {
				msg.WriteByte(' ')
			}
			msg.WriteString(strings.TrimRight(prefix, ",;"))
		}
		fields = append(fields, format[match[2]:match[3]], args[i])
		lastEnd = match[1]
	}

	if rest := strings.TrimSpace(format[lastEnd:]); rest != "" {
		if msg.Len() > 0 {
			msg.WriteByte(' ')
		}
		msg.WriteString(strings.TrimLeft(rest, ",; "))
	}

	return msg.String(), fields
}

// StructuredGnetAdapter is a gnet adapter that turns "key=%v" verbs into record fields
type StructuredGnetAdapter struct {
	*GnetAdapter
	extractFields bool
}

// NewStructuredGnetAdapter creates a gnet adapter with structured field extraction
func NewStructuredGnetAdapter(logger *tglog.Logger, opts ...GnetOption) *StructuredGnetAdapter {
	return &StructuredGnetAdapter{
		GnetAdapter:   NewGnetAdapter(logger, opts...),
		extractFields: true,
	}
}

// Debugf logs with structured field extraction
func (a *StructuredGnetAdapter) Debugf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Debugf(format, args...)
		return
	}
	msg, fields := parseFormat(format, args)
	a.logger.Debug(msg, fields...)
}

// Infof logs with structured field extraction
func (a *StructuredGnetAdapter) Infof(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Infof(format, args...)
		return
	}
	msg, fields := parseFormat(format, args)
	a.logger.Info(msg, fields...)
}

// Warnf logs with structured field extraction
func (a *StructuredGnetAdapter) Warnf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Warnf(format, args...)
		return
	}
	msg, fields := parseFormat(format, args)
	a.logger.Warn(msg, fields...)
}

// Errorf logs with structured field extraction
func (a *StructuredGnetAdapter) Errorf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Errorf(format, args...)
		return
	}
	msg, fields := parseFormat(format, args)
	a.logger.Error(msg, fields...)
}
