package memory

import (
	"fmt"
	"strings"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/conv"
)

const (
	markerBot  = "🤖 AI"
	markerUser = "👤 User"
)

// FormatFlatLine renders a record as one line of the flat log.
func FormatFlatLine(rec core.Record) string {
	return fmt.Sprintf("[%s] %s: %s", rec.Timestamp, rec.AuthorName, conv.FlattenLines(rec.Text))
}

// FormatTranscriptLine renders a record for the prompt, marking who wrote it.
func FormatTranscriptLine(rec core.Record) string {
	marker := markerUser
	if rec.AuthorIsBot {
		marker = markerBot
	}
	return fmt.Sprintf("[%s] %s (%s): %s", rec.Timestamp, marker, rec.AuthorName, rec.Text)
}

func FormatTranscript(candidates []core.RankedCandidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, FormatTranscriptLine(c.Record))
	}
	return strings.Join(lines, "\n")
}
