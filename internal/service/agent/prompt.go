package agent

import (
	"os"
	"strings"
	"time"

	"github.com/sandevgo/teleai/internal/core"
)

type SysPrompt struct {
	cfg core.PromptConfig
	now func() time.Time
}

func NewSysPrompt(cfg core.PromptConfig) *SysPrompt {
	return &SysPrompt{
		cfg: cfg,
		now: time.Now,
	}
}

// Build returns the system messages: personality first, then the optional
// SYSTEM.md and IDENTITY.md files of the runtime directory.
func (p *SysPrompt) Build() []core.Message {
	readFile := func(path string) string {
		content, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(content))
	}

	personality := p.cfg.GetPersonality() + "\n\nCurrent time: " + p.now().Format(core.TimestampLayout)
	messages := []core.Message{{Role: core.RoleSystem, Content: personality}}

	if content := readFile(p.cfg.GetSystemPath()); content != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: content})
	}
	if content := readFile(p.cfg.GetIdentityPath()); content != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: "YOUR IDENTITY:\n" + content})
	}
	return messages
}
