package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/service/memory"
)

type StatusCommand struct {
	mem       ContextAdmin
	formatter *ResponseFormatter
}

func NewStatusCommand(mem ContextAdmin) *StatusCommand {
	return &StatusCommand{
		mem:       mem,
		formatter: NewResponseFormatter(),
	}
}

func (c *StatusCommand) Name() string {
	return "status"
}

func (c *StatusCommand) Description() string {
	return "Show the vector store connection"
}

func (c *StatusCommand) Execute(ctx context.Context, req core.CommandRequest) (string, error) {
	st := c.mem.Stats(ctx)

	icon := c.formatter.StateIcon(st.State)

	out := c.formatter.Title("Status") +
		c.formatter.Field("Version", core.AppVersion) +
		c.formatter.Field("Semantic search", onOff(st.StoreEnabled)) +
		c.formatter.Field("Vector store", fmt.Sprintf("%s %s (%s)", icon, st.State, st.Backend)) +
		c.formatter.Field("Embeddings", st.EmbeddingMode)

	if st.State != memory.StateConnected && st.StoreEnabled {
		if last := c.mem.LastError(); last != "" {
			out += c.formatter.Field("Last error", last)
		}
		out += "\n" + c.formatter.Tip("answers use the plain chat log until /reset succeeds")
	}
	return out, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
