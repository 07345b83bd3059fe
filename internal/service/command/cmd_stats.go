package command

import (
	"context"
	"strconv"

	"github.com/sandevgo/teleai/internal/core"
)

type StatsCommand struct {
	mem       ContextAdmin
	formatter *ResponseFormatter
}

func NewStatsCommand(mem ContextAdmin) *StatsCommand {
	return &StatsCommand{
		mem:       mem,
		formatter: NewResponseFormatter(),
	}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Description() string {
	return "Show stored history counts"
}

func (c *StatsCommand) Execute(ctx context.Context, req core.CommandRequest) (string, error) {
	st := c.mem.Stats(ctx)

	store := c.formatter.Field("Records", strconv.Itoa(st.RecordCount)) +
		c.formatter.Field("Conversations", strconv.Itoa(st.ConversationCount))
	flat := c.formatter.Field("Conversations", strconv.Itoa(st.FlatConversations)) +
		c.formatter.Field("Lines", strconv.Itoa(st.FlatLines)) +
		c.formatter.Field("Size", formatBytes(st.FlatBytes))

	return c.formatter.Join(
		c.formatter.Title("Context Stats"),
		c.formatter.Section("🧠", "Vector store ("+st.Backend+", "+st.State.String()+")", store),
		c.formatter.Section("📜", "Chat log", flat),
	), nil
}

func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return strconv.FormatInt(n, 10) + " B"
	case n < unit*unit:
		return strconv.FormatFloat(float64(n)/unit, 'f', 1, 64) + " KiB"
	default:
		return strconv.FormatFloat(float64(n)/(unit*unit), 'f', 1, 64) + " MiB"
	}
}
