// Package sanitizer provides a fluent and composable interface for sanitizing
// strings based on configurable rules using bitwise filter flags and transforms.
// Besides the generic text policies it carries the escaping policies required by
// the Telegram Bot API parse modes, so user supplied log content cannot break the
// markup of a message.
package sanitizer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

// Filter flags for character matching
const (
	FilterNonPrintable    uint64 = 1 << iota // Matches runes not classified as printable by strconv.IsPrint
	FilterControl                            // Matches control characters (unicode.IsControl)
	FilterWhitespace                         // Matches whitespace characters (unicode.IsSpace)
	FilterHTMLSpecial                        // Matches '<', '>', '&'
	FilterMarkdownSpecial                    // Matches legacy Markdown entities: '_', '*', '`', '['
	FilterMarkdownV2Special                  // Matches every character reserved by MarkdownV2
)

// Transform flags for character transformation
const (
	TransformStrip           uint64 = 1 << iota // Removes the character
	TransformHexEncode                          // Encodes the character's UTF-8 bytes as "<XXYY>"
	TransformJSONEscape                         // Escapes the character with JSON-style backslashes (e.g., '\n', '\u0000')
	TransformHTMLEscape                         // Replaces the character with its HTML entity
	TransformBackslashEscape                    // Prefixes the character with a backslash
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyRaw        PolicyPreset = "raw"         // Raw is a no-op (passthrough)
	PolicyJSON       PolicyPreset = "json"        // Policy for sanitizing strings to be embedded in JSON
	PolicyTxt        PolicyPreset = "txt"         // Policy for plain text messages
	PolicyHTML       PolicyPreset = "html"        // Policy for messages sent with parse_mode=HTML
	PolicyMarkdown   PolicyPreset = "markdown"    // Policy for messages sent with parse_mode=Markdown
	PolicyMarkdownV2 PolicyPreset = "markdown_v2" // Policy for messages sent with parse_mode=MarkdownV2
)

// rule represents a single sanitization rule
type rule struct {
	filter    uint64
	transform uint64
}

// Newlines and tabs are legitimate inside chat messages. Plain text keeps other
// control characters visible as hex, markup policies strip them since the hex
// form would itself need escaping.
var (
	textControl   = rule{filter: FilterNonPrintable, transform: TransformHexEncode}
	markupControl = rule{filter: FilterNonPrintable, transform: TransformStrip}
)

// policyRules contains pre-configured rules for each policy
var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:        {},
	PolicyTxt:        {textControl},
	PolicyJSON:       {{filter: FilterControl, transform: TransformJSONEscape}},
	PolicyHTML:       {{filter: FilterHTMLSpecial, transform: TransformHTMLEscape}, markupControl},
	PolicyMarkdown:   {{filter: FilterMarkdownSpecial, transform: TransformBackslashEscape}, markupControl},
	PolicyMarkdownV2: {{filter: FilterMarkdownV2Special, transform: TransformBackslashEscape}, markupControl},
}

// filterCheckers maps individual filter flags to their check functions
var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return r != '\n' && r != '\t' && !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterWhitespace:   unicode.IsSpace,
	FilterHTMLSpecial: func(r rune) bool {
		return r == '<' || r == '>' || r == '&'
	},
	FilterMarkdownSpecial: func(r rune) bool {
		switch r {
		case '_', '*', '`', '[':
			return true
		}
		return false
	},
	FilterMarkdownV2Special: func(r rune) bool {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			return true
		}
		return false
	},
}

// Sanitizer provides chainable text sanitization. A Sanitizer reuses an internal
// buffer and is not safe for concurrent use.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a new Sanitizer instance
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
		buf:   make([]byte, 0, 256),
	}
}

// ForParseMode returns a sanitizer carrying the policy matching a Telegram parse
// mode name ("HTML", "MARKDOWN", "MarkdownV2"). Unknown modes get the txt policy.
func ForParseMode(mode string) *Sanitizer {
	switch mode {
	case "HTML":
		return New().Policy(PolicyHTML)
	case "MARKDOWN", "Markdown":
		return New().Policy(PolicyMarkdown)
	case "MarkdownV2":
		return New().Policy(PolicyMarkdownV2)
	default:
		return New().Policy(PolicyTxt)
	}
}

// Rule adds a custom rule to the sanitizer (appended, earliest rule applies first)
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy applies a pre-configured policy to the sanitizer (appended)
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}
	s.buf = s.buf[:0]

	for _, r := range data {
		matched := false
		// First match wins
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				applyTransform(&s.buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			s.buf = utf8.AppendRune(s.buf, r)
		}
	}

	return string(s.buf)
}

// matchesFilter checks if a rune matches any filter in the mask
func matchesFilter(r rune, filterMask uint64) bool {
	for flag, checker := range filterCheckers {
		if (filterMask&flag) != 0 && checker(r) {
			return true
		}
	}
	return false
}

// applyTransform applies the specified transform to the buffer
func applyTransform(buf *[]byte, r rune, transformMask uint64) {
	switch {
	case (transformMask & TransformStrip) != 0:
		// strip

	case (transformMask & TransformHexEncode) != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		*buf = append(*buf, '<')
		*buf = append(*buf, hex.EncodeToString(runeBytes[:n])...)
		*buf = append(*buf, '>')

	case (transformMask & TransformHTMLEscape) != 0:
		switch r {
		case '<':
			*buf = append(*buf, "&lt;"...)
		case '>':
			*buf = append(*buf, "&gt;"...)
		case '&':
			*buf = append(*buf, "&amp;"...)
		default:
			*buf = utf8.AppendRune(*buf, r)
		}

	case (transformMask & TransformBackslashEscape) != 0:
		*buf = append(*buf, '\\')
		*buf = utf8.AppendRune(*buf, r)

	case (transformMask & TransformJSONEscape) != 0:
		switch r {
		case '\n':
			*buf = append(*buf, '\\', 'n')
		case '\r':
			*buf = append(*buf, '\\', 'r')
		case '\t':
			*buf = append(*buf, '\\', 't')
		case '\b':
			*buf = append(*buf, '\\', 'b')
		case '\f':
			*buf = append(*buf, '\\', 'f')
		case '"':
			*buf = append(*buf, '\\', '"')
		case '\\':
			*buf = append(*buf, '\\', '\\')
		default:
			if r < 0x20 || r == 0x7f {
				*buf = append(*buf, fmt.Sprintf("\\u%04x", r)...)
			} else {
				*buf = utf8.AppendRune(*buf, r)
			}
		}
	}
}

// Serializer implements format-specific output behaviors
type Serializer struct {
	format    string
	sanitizer *Sanitizer
}

// NewSerializer creates a handler with format-specific behavior
func NewSerializer(format string, san *Sanitizer) *Serializer {
	if san == nil {
		san = New()
	}
	return &Serializer{
		format:    format,
		sanitizer: san,
	}
}

// WriteText writes free text, sanitized but never quoted. In json format the
// text is written as a JSON string.
func (se *Serializer) WriteText(buf *[]byte, s string) {
	if se.format == "json" {
		se.WriteString(buf, s)
		return
	}
	*buf = append(*buf, se.sanitizer.Sanitize(s)...)
}

// WriteString writes a string with format-specific handling
func (se *Serializer) WriteString(buf *[]byte, s string) {
	switch se.format {
	case "raw":
		*buf = append(*buf, se.sanitizer.Sanitize(s)...)

	case "txt":
		sanitized := se.sanitizer.Sanitize(s)
		if se.NeedsQuotes(s) {
			*buf = append(*buf, '"')
			*buf = append(*buf, sanitized...)
			*buf = append(*buf, '"')
		} else {
			*buf = append(*buf, sanitized...)
		}

	case "json":
		*buf = append(*buf, '"')
		for i := 0; i < len(s); {
			c := s[i]
			if c >= ' ' && c != '"' && c != '\\' && c < 0x7f {
				start := i
				for i < len(s) && s[i] >= ' ' && s[i] != '"' && s[i] != '\\' && s[i] < 0x7f {
					i++
				}
				*buf = append(*buf, s[start:i]...)
				continue
			}
			if c >= 0x80 {
				// Multi-byte UTF-8 sequences pass through unchanged
				_, size := utf8.DecodeRuneInString(s[i:])
				*buf = append(*buf, s[i:i+size]...)
				i += size
				continue
			}
			switch c {
			case '\\', '"':
				*buf = append(*buf, '\\', c)
			case '\n':
				*buf = append(*buf, '\\', 'n')
			case '\r':
				*buf = append(*buf, '\\', 'r')
			case '\t':
				*buf = append(*buf, '\\', 't')
			case '\b':
				*buf = append(*buf, '\\', 'b')
			case '\f':
				*buf = append(*buf, '\\', 'f')
			default:
				*buf = append(*buf, fmt.Sprintf("\\u%04x", c)...)
			}
			i++
		}
		*buf = append(*buf, '"')
	}
}

// WriteNumber writes a number value
func (se *Serializer) WriteNumber(buf *[]byte, n string) {
	*buf = append(*buf, n...)
}

// WriteBool writes a boolean value
func (se *Serializer) WriteBool(buf *[]byte, b bool) {
	*buf = strconv.AppendBool(*buf, b)
}

// WriteNil writes a nil value
func (se *Serializer) WriteNil(buf *[]byte) {
	switch se.format {
	case "raw":
		*buf = append(*buf, "nil"...)
	default:
		*buf = append(*buf, "null"...)
	}
}

// WriteComplex writes complex types
func (se *Serializer) WriteComplex(buf *[]byte, v any) {
	switch se.format {
	case "raw":
		var b bytes.Buffer
		dumper := &spew.ConfigState{
			Indent:                  " ",
			MaxDepth:                10,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		dumper.Fdump(&b, v)
		*buf = append(*buf, se.sanitizer.Sanitize(string(bytes.TrimSpace(b.Bytes())))...)

	default:
		str := fmt.Sprintf("%+v", v)
		se.WriteString(buf, str)
	}
}

// NeedsQuotes determines if quoting is needed for a field value
func (se *Serializer) NeedsQuotes(s string) bool {
	switch se.format {
	case "json":
		return true
	case "txt":
		if len(s) == 0 {
			return true
		}
		for _, r := range s {
			if unicode.IsSpace(r) || r == '"' || r == '=' {
				return true
			}
		}
		return false
	default:
		return false
	}
}
