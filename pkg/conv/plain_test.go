package conv

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	out := PlainText("**bold** and [link](https://example.com)")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "link")
	assert.NotContains(t, out, "<")
	assert.Equal(t, "", PlainText(""))
}

func TestFlattenLines(t *testing.T) {
	assert.Equal(t, "one two three", FlattenLines("one\ntwo\r\n  three "))
	assert.Equal(t, "", FlattenLines("\n\n"))
}

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitText("hello", 10))
	})

	t.Run("prefers newline", func(t *testing.T) {
		text := "aaaaaa\nbbbbbbbbb"
		chunks := SplitText(text, 10)
		assert.Equal(t, []string{"aaaaaa", "bbbbbbbbb"}, chunks)
	})

	t.Run("hard cut without newline", func(t *testing.T) {
		chunks := SplitText(strings.Repeat("x", 25), 10)
		assert.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 10)
		}
	})

	t.Run("keeps runes intact", func(t *testing.T) {
		chunks := SplitText(strings.Repeat("ж", 20), 7)
		for _, c := range chunks {
			assert.True(t, utf8.ValidString(c), "chunk %q is not valid utf8", c)
		}
		assert.Equal(t, strings.Repeat("ж", 20), strings.Join(chunks, ""))
	})
}

func TestHTMLToText(t *testing.T) {
	out := HTMLToText("<b>Hello</b> <i>there</i>")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "there")
	assert.NotContains(t, out, "<b>")
	assert.Equal(t, "", HTMLToText("   "))
}
