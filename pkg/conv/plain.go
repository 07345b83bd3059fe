package conv

import (
	"strings"

	"github.com/inbucket/html2text"
)

// PlainText renders Markdown the way a Telegram reader sees it, without markup.
func PlainText(md string) string {
	text := HTMLToText(MarkdownToTelegramHTML([]byte(md)))
	if text == "" {
		return strings.TrimSpace(md)
	}
	return text
}

// HTMLToText strips markup from Telegram HTML.
func HTMLToText(html string) string {
	text, err := html2text.FromString(html, html2text.Options{OmitLinks: true})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// FlattenLines joins all lines of s with single spaces.
func FlattenLines(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
}

// SplitText splits text into chunks of at most maxLen bytes.
// Newlines in the second two thirds of a chunk are preferred as break points.
func SplitText(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}
		// never cut inside a multi-byte rune
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
