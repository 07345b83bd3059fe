package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/teleai/internal/core"
)

type StartCommand struct {
	personality string
	formatter   *ResponseFormatter
}

func NewStartCommand(personality string) *StartCommand {
	return &StartCommand{
		personality: personality,
		formatter:   NewResponseFormatter(),
	}
}

func (c *StartCommand) Name() string {
	return "start"
}

func (c *StartCommand) Description() string {
	return "Introduce the bot"
}

func (c *StartCommand) Execute(ctx context.Context, req core.CommandRequest) (string, error) {
	intro := fmt.Sprintf("👋 Hi! I'm **%s**.", core.AppName)
	howTo := "Write me directly, or mention me in a group. I remember what was said in this chat and use it when answering."
	if req.Chat.IsGroup() {
		howTo = "Mention me or reply to one of my messages and I will answer. I read along to keep the conversation in mind."
	}

	parts := []string{intro, howTo}
	if first := firstLine(c.personality); first != "" {
		parts = append(parts, "_"+first+"_")
	}
	return c.formatter.Join(parts...) + "\n" + c.formatter.Tip("send /help for the command list"), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

type HelpCommand struct {
	commands  []core.Command
	formatter *ResponseFormatter
}

func NewHelpCommand() *HelpCommand {
	return &HelpCommand{formatter: NewResponseFormatter()}
}

func (c *HelpCommand) SetCommands(cmds []core.Command) {
	c.commands = cmds
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(ctx context.Context, req core.CommandRequest) (string, error) {
	items := make([]string, 0, len(c.commands))
	for _, cmd := range c.commands {
		items = append(items, fmt.Sprintf("/%s - %s", cmd.Name(), cmd.Description()))
	}
	return c.formatter.Title("Commands") + c.formatter.Bullets(items), nil
}
