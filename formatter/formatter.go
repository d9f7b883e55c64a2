// Package formatter renders log entries into chat message text.
package formatter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lixenwraith/tglog/sanitizer"
)

// Format flags for controlling output structure
const (
	FlagRaw           int64 = 0b0001
	FlagShowTimestamp int64 = 0b0010
	FlagShowLevel     int64 = 0b0100
	FlagDefault             = FlagShowTimestamp | FlagShowLevel
)

// Markup modes, matching the Telegram parse_mode values
const (
	MarkupNone       = ""
	MarkupHTML       = "HTML"
	MarkupMarkdown   = "MARKDOWN"
	MarkupMarkdownV2 = "MarkdownV2"
)

// Entry is the formatter's view of a log record
type Entry struct {
	Time    time.Time
	Level   int64
	Logger  string
	Message string
	Fields  []any // alternating key/value pairs, a trailing odd value is written bare
	Trace   string
}

// Formatter manages the buffered formatting of log entries. It reuses an
// internal buffer and is not safe for concurrent use.
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	format          string
	markup          string
	timestampFormat string
	showTimestamp   bool
	showLevel       bool
	buf             []byte
}

// New creates a formatter with the provided sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New().Policy(sanitizer.PolicyTxt)
	}
	return &Formatter{
		sanitizer:       san,
		format:          "txt",
		timestampFormat: time.RFC3339,
		showTimestamp:   true,
		showLevel:       true,
		buf:             make([]byte, 0, 1024),
	}
}

// Type sets the output format ("txt", "json", or "raw")
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	return f
}

// Markup sets the parse mode the output is rendered for and replaces the
// sanitizer with the escaping policy of that mode
func (f *Formatter) Markup(mode string) *Formatter {
	f.markup = mode
	f.sanitizer = sanitizer.ForParseMode(mode)
	return f
}

// TimestampFormat sets the timestamp format string
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// ShowLevel sets whether to include level in output
func (f *Formatter) ShowLevel(show bool) *Formatter {
	f.showLevel = show
	return f
}

// ShowTimestamp sets whether to include timestamp in output
func (f *Formatter) ShowTimestamp(show bool) *Formatter {
	f.showTimestamp = show
	return f
}

// Format formats an entry using configured options and explicit flags.
// The returned slice is only valid until the next call.
func (f *Formatter) Format(flags int64, e Entry) []byte {
	// Zero flags defer to the configured values
	effectiveFlags := flags
	if flags == 0 {
		if f.showTimestamp {
			effectiveFlags |= FlagShowTimestamp
		}
		if f.showLevel {
			effectiveFlags |= FlagShowLevel
		}
	}

	return f.FormatWithOptions(f.format, effectiveFlags, e)
}

// FormatWithOptions formats with explicit format and flags, ignoring configured values
func (f *Formatter) FormatWithOptions(format string, flags int64, e Entry) []byte {
	f.Reset()

	if flags&FlagRaw != 0 {
		format = "raw"
	}

	switch format {
	case "raw":
		serializer := sanitizer.NewSerializer("raw", f.sanitizer)
		serializer.WriteText(&f.buf, e.Message)
		for i := 0; i < len(e.Fields); i++ {
			f.convertValue(&f.buf, e.Fields[i], serializer, true)
		}
		return f.buf

	case "json":
		return f.formatJSON(flags, e)

	default:
		return f.formatTxt(flags, e)
	}
}

// Reset clears the formatter buffer for reuse
func (f *Formatter) Reset() {
	f.buf = f.buf[:0]
}

// LevelToString converts integer level values to string
func LevelToString(level int64) string {
	switch level {
	case -4:
		return "DEBUG"
	case 0:
		return "INFO"
	case 4:
		return "WARN"
	case 8:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// convertValue provides unified type conversion
func (f *Formatter) convertValue(buf *[]byte, v any, serializer *sanitizer.Serializer, needsSpace bool) {
	if needsSpace && len(*buf) > 0 {
		*buf = append(*buf, ' ')
	}

	switch val := v.(type) {
	case string:
		serializer.WriteString(buf, val)

	case []byte:
		serializer.WriteString(buf, string(val))

	case rune:
		var runeStr [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeStr[:], val)
		serializer.WriteString(buf, string(runeStr[:n]))

	case int:
		serializer.WriteNumber(buf, strconv.FormatInt(int64(val), 10))

	case int64:
		serializer.WriteNumber(buf, strconv.FormatInt(val, 10))

	case uint:
		serializer.WriteNumber(buf, strconv.FormatUint(uint64(val), 10))

	case uint64:
		serializer.WriteNumber(buf, strconv.FormatUint(val, 10))

	case float32:
		serializer.WriteNumber(buf, strconv.FormatFloat(float64(val), 'f', -1, 32))

	case float64:
		serializer.WriteNumber(buf, strconv.FormatFloat(val, 'f', -1, 64))

	case bool:
		serializer.WriteBool(buf, val)

	case nil:
		serializer.WriteNil(buf)

	case time.Time:
		serializer.WriteString(buf, val.Format(f.timestampFormat))

	case time.Duration:
		serializer.WriteString(buf, val.String())

	case error:
		serializer.WriteString(buf, val.Error())

	case fmt.Stringer:
		serializer.WriteString(buf, val.String())

	default:
		serializer.WriteComplex(buf, val)
	}
}

// formatTxt renders a human readable message:
//
//	<timestamp> <LEVEL> [logger] message
//	key=value key=value
//	trace
func (f *Formatter) formatTxt(flags int64, e Entry) []byte {
	serializer := sanitizer.NewSerializer("txt", f.sanitizer)
	needsSpace := false

	if flags&FlagShowTimestamp != 0 && !e.Time.IsZero() {
		serializer.WriteText(&f.buf, e.Time.Format(f.timestampFormat))
		needsSpace = true
	}

	if flags&FlagShowLevel != 0 {
		if needsSpace {
			f.buf = append(f.buf, ' ')
		}
		f.appendEmphasis(LevelToString(e.Level))
		needsSpace = true
	}

	if e.Logger != "" {
		if needsSpace {
			f.buf = append(f.buf, ' ')
		}
		serializer.WriteText(&f.buf, "["+e.Logger+"]")
		needsSpace = true
	}

	if e.Message != "" {
		if needsSpace {
			f.buf = append(f.buf, ' ')
		}
		serializer.WriteText(&f.buf, e.Message)
	}

	if len(e.Fields) > 0 {
		if len(f.buf) > 0 {
			f.buf = append(f.buf, '\n')
		}
		fieldsStart := len(f.buf)
		for i := 0; i < len(e.Fields); i += 2 {
			if len(f.buf) > fieldsStart {
				f.buf = append(f.buf, ' ')
			}
			key, isKey := e.Fields[i].(string)
			if !isKey || i+1 >= len(e.Fields) {
				f.convertValue(&f.buf, e.Fields[i], serializer, false)
				i--
				continue
			}
			serializer.WriteText(&f.buf, key)
			serializer.WriteText(&f.buf, "=")
			f.convertValue(&f.buf, e.Fields[i+1], serializer, false)
		}
	}

	if e.Trace != "" {
		if len(f.buf) > 0 {
			f.buf = append(f.buf, '\n')
		}
		f.appendPreformatted(e.Trace)
	}

	return f.buf
}

// formatJSON renders the entry as a single JSON object, escaped for the markup
func (f *Formatter) formatJSON(flags int64, e Entry) []byte {
	serializer := sanitizer.NewSerializer("json", sanitizer.New())
	var obj []byte
	obj = append(obj, '{')
	needsComma := false

	writeKey := func(key string) {
		if needsComma {
			obj = append(obj, ',')
		}
		obj = append(obj, '"')
		obj = append(obj, key...)
		obj = append(obj, '"', ':')
		needsComma = true
	}

	if flags&FlagShowTimestamp != 0 && !e.Time.IsZero() {
		writeKey("time")
		serializer.WriteString(&obj, e.Time.Format(f.timestampFormat))
	}

	if flags&FlagShowLevel != 0 {
		writeKey("level")
		serializer.WriteString(&obj, LevelToString(e.Level))
	}

	if e.Logger != "" {
		writeKey("logger")
		serializer.WriteString(&obj, e.Logger)
	}

	writeKey("message")
	serializer.WriteString(&obj, e.Message)

	if len(e.Fields) > 0 {
		writeKey("fields")
		obj = append(obj, marshalFields(e.Fields)...)
	}

	if e.Trace != "" {
		writeKey("trace")
		serializer.WriteString(&obj, e.Trace)
	}

	obj = append(obj, '}')

	if f.markup == MarkupNone {
		f.buf = append(f.buf, obj...)
		return f.buf
	}
	f.appendPreformatted(string(obj))
	return f.buf
}

// marshalFields renders key/value pairs as a JSON object, falling back to an
// array when the pairs are malformed
func marshalFields(fields []any) []byte {
	if len(fields)%2 == 0 {
		m := make(map[string]any, len(fields)/2)
		wellFormed := true
		for i := 0; i < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				wellFormed = false
				break
			}
			m[key] = jsonSafe(fields[i+1])
		}
		if wellFormed {
			if data, err := json.Marshal(m); err == nil {
				return data
			}
		}
	}

	values := make([]any, len(fields))
	for i, v := range fields {
		values[i] = jsonSafe(v)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return []byte(`{"_marshal_error":` + strconv.Quote(err.Error()) + `}`)
	}
	return data
}

// jsonSafe converts values encoding/json would render unhelpfully
func jsonSafe(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Time:
		return val
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

// appendEmphasis writes text in bold for the active markup
func (f *Formatter) appendEmphasis(text string) {
	switch f.markup {
	case MarkupHTML:
		f.buf = append(f.buf, "<b>"...)
		f.buf = append(f.buf, f.sanitizer.Sanitize(text)...)
		f.buf = append(f.buf, "</b>"...)
	case MarkupMarkdown, MarkupMarkdownV2:
		f.buf = append(f.buf, '*')
		f.buf = append(f.buf, f.sanitizer.Sanitize(text)...)
		f.buf = append(f.buf, '*')
	default:
		f.buf = append(f.buf, text...)
	}
}

// appendPreformatted writes a preformatted block for the active markup
func (f *Formatter) appendPreformatted(text string) {
	switch f.markup {
	case MarkupHTML:
		f.buf = append(f.buf, "<pre>"...)
		f.buf = append(f.buf, f.sanitizer.Sanitize(text)...)
		f.buf = append(f.buf, "</pre>"...)
	case MarkupMarkdown:
		// Legacy markdown has no escaping inside code blocks
		f.buf = append(f.buf, "```\n"...)
		f.buf = append(f.buf, strings.ReplaceAll(text, "```", "'''")...)
		f.buf = append(f.buf, "\n```"...)
	case MarkupMarkdownV2:
		f.buf = append(f.buf, "```\n"...)
		f.buf = append(f.buf, codeEscaper.Replace(text)...)
		f.buf = append(f.buf, "\n```"...)
	default:
		f.buf = append(f.buf, text...)
	}
}

// codeEscaper escapes the two characters MarkdownV2 reserves inside code blocks
var codeEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")
