package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/teleai/internal/service/memory"
)

// ResponseFormatter renders command replies as the Markdown subset the
// Telegram sender converts to HTML.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Title(title string) string {
	return fmt.Sprintf("⚙️ **%s**\n\n", title)
}

func (f *ResponseFormatter) Success(message string) string {
	return fmt.Sprintf("✅ **%s**\n", message)
}

func (f *ResponseFormatter) Failure(command string, err error) string {
	return fmt.Sprintf("❌ **/%s failed**\n\n%s\n", command, err)
}

func (f *ResponseFormatter) Field(label, value string) string {
	return fmt.Sprintf("**%s**  ›  `%s`\n", label, value)
}

func (f *ResponseFormatter) Bullets(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("› " + item + "\n")
	}
	return sb.String()
}

func (f *ResponseFormatter) Tip(text string) string {
	return "**Tip**: " + text + "\n"
}

func (f *ResponseFormatter) Section(emoji, title, content string) string {
	return fmt.Sprintf("%s **%s**\n%s\n", emoji, title, content)
}

func (f *ResponseFormatter) Join(parts ...string) string {
	return strings.Join(parts, "\n")
}

// StateIcon is a traffic light for the store connection.
func (f *ResponseFormatter) StateIcon(s memory.ConnState) string {
	switch s {
	case memory.StateConnected:
		return "🟢"
	case memory.StateConnecting:
		return "🟡"
	default:
		return "🔴"
	}
}
