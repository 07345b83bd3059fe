package command

import (
	"context"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/service/memory"
)

// ContextAdmin is the operator surface of the context manager.
type ContextAdmin interface {
	Stats(ctx context.Context) memory.Stats
	ResetConnection(ctx context.Context) error
	State() memory.ConnState
	LastError() string
}

type AdminPolicy interface {
	IsAdmin(userID int64) bool
}

func NewCommands(
	personality string,
	mem ContextAdmin,
	admins AdminPolicy,
) []core.Command {
	help := NewHelpCommand()
	cmds := []core.Command{
		NewStartCommand(personality),
		help,
		NewStatusCommand(mem),
		NewStatsCommand(mem),
		NewResetCommand(mem, admins),
	}
	help.SetCommands(cmds)
	return cmds
}
