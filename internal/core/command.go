package core

import "context"

type CmdRouter interface {
	Execute(ctx context.Context, chat Chat, senderID int64, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, req CommandRequest) (string, error)
}

type CommandRequest struct {
	Chat     Chat
	SenderID int64
	Args     []string
}
