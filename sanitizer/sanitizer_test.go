package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizerPolicies(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{
			name:     "raw passes through",
			input:    "hello\x00world\n",
			policy:   PolicyRaw,
			expected: "hello\x00world\n",
		},
		{
			name:     "txt hex encodes null byte",
			input:    "test\x00data",
			policy:   PolicyTxt,
			expected: "test<00>data",
		},
		{
			name:     "txt keeps newlines and tabs",
			input:    "line1\nline2\tend",
			policy:   PolicyTxt,
			expected: "line1\nline2\tend",
		},
		{
			name:     "txt preserves UTF-8",
			input:    "Hello 世界 ✓",
			policy:   PolicyTxt,
			expected: "Hello 世界 ✓",
		},
		{
			name:     "html escapes entities",
			input:    "a<b>&c",
			policy:   PolicyHTML,
			expected: "a&lt;b&gt;&amp;c",
		},
		{
			name:     "html strips control characters",
			input:    "x\x07y\nz",
			policy:   PolicyHTML,
			expected: "xy\nz",
		},
		{
			name:     "markdown escapes entities",
			input:    "snake_case *bold* `code` [link",
			policy:   PolicyMarkdown,
			expected: "snake\\_case \\*bold\\* \\`code\\` \\[link",
		},
		{
			name:     "markdown v2 escapes reserved characters",
			input:    "v1.2 (beta)!",
			policy:   PolicyMarkdownV2,
			expected: "v1\\.2 \\(beta\\)\\!",
		},
		{
			name:     "json escapes control characters",
			input:    "a\nb\"c",
			policy:   PolicyJSON,
			expected: "a\\nb\"c",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New().Policy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestForParseMode(t *testing.T) {
	assert.Equal(t, "&lt;x&gt;", ForParseMode("HTML").Sanitize("<x>"))
	assert.Equal(t, "a\\_b", ForParseMode("MARKDOWN").Sanitize("a_b"))
	assert.Equal(t, "a\\-b", ForParseMode("MarkdownV2").Sanitize("a-b"))
	assert.Equal(t, "<x>", ForParseMode("").Sanitize("<x>"))
}

func TestCustomRule(t *testing.T) {
	s := New().Rule(FilterWhitespace, TransformStrip)
	assert.Equal(t, "nospaces", s.Sanitize("no spaces"))
}

func TestSerializer(t *testing.T) {
	t.Run("txt quotes values with whitespace", func(t *testing.T) {
		se := NewSerializer("txt", New().Policy(PolicyTxt))
		var buf []byte
		se.WriteString(&buf, "hello world")
		assert.Equal(t, `"hello world"`, string(buf))

		buf = buf[:0]
		se.WriteString(&buf, "simple")
		assert.Equal(t, "simple", string(buf))

		buf = buf[:0]
		se.WriteString(&buf, "")
		assert.Equal(t, `""`, string(buf))
	})

	t.Run("text is never quoted", func(t *testing.T) {
		se := NewSerializer("txt", ForParseMode("HTML"))
		var buf []byte
		se.WriteText(&buf, "a <b> c")
		assert.Equal(t, "a &lt;b&gt; c", string(buf))
	})

	t.Run("json escapes and keeps multibyte", func(t *testing.T) {
		se := NewSerializer("json", nil)
		var buf []byte
		se.WriteString(&buf, "a\"b\n")
		assert.Equal(t, `"a\"b\n"`, string(buf))

		buf = buf[:0]
		se.WriteString(&buf, "世界")
		assert.Equal(t, `"世界"`, string(buf))

		buf = buf[:0]
		se.WriteText(&buf, "x")
		assert.Equal(t, `"x"`, string(buf))
	})

	t.Run("nil and bool", func(t *testing.T) {
		var buf []byte
		NewSerializer("raw", nil).WriteNil(&buf)
		assert.Equal(t, "nil", string(buf))

		buf = buf[:0]
		NewSerializer("txt", nil).WriteNil(&buf)
		assert.Equal(t, "null", string(buf))

		buf = buf[:0]
		NewSerializer("txt", nil).WriteBool(&buf, true)
		assert.Equal(t, "true", string(buf))
	})

	t.Run("raw dumps complex values", func(t *testing.T) {
		var buf []byte
		NewSerializer("raw", nil).WriteComplex(&buf, struct{ A int }{A: 1})
		assert.Contains(t, string(buf), "(int) 1")
	})

	t.Run("txt formats complex values", func(t *testing.T) {
		var buf []byte
		NewSerializer("txt", nil).WriteComplex(&buf, []int{1, 2})
		assert.Equal(t, `"[1 2]"`, string(buf))
	})
}
