package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/teleai/internal/core"
)

var ErrNotAdmin = errors.New("this command is restricted to bot admins")

type ResetCommand struct {
	mem       ContextAdmin
	admins    AdminPolicy
	formatter *ResponseFormatter
}

func NewResetCommand(mem ContextAdmin, admins AdminPolicy) *ResetCommand {
	return &ResetCommand{
		mem:       mem,
		admins:    admins,
		formatter: NewResponseFormatter(),
	}
}

func (c *ResetCommand) Name() string {
	return "reset"
}

func (c *ResetCommand) Description() string {
	return "Reconnect the vector store"
}

func (c *ResetCommand) Execute(ctx context.Context, req core.CommandRequest) (string, error) {
	if c.admins != nil && !c.admins.IsAdmin(req.SenderID) {
		return "", ErrNotAdmin
	}

	if err := c.mem.ResetConnection(ctx); err != nil {
		return "", fmt.Errorf("reconnect failed: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Vector store is %s", c.mem.State())), nil
}
