package installer

import (
	"strings"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/pkg/env"
)

// InstallState collects the answers of the wizard as typed configs.
type InstallState struct {
	AI        config.AIConfig
	Embedding config.EmbeddingConfig
	Store     config.StoreConfig
	Telegram  config.TelegramConfig
	Debug     bool
}

func NewInstallState() *InstallState {
	return &InstallState{}
}

// Render returns the .env content for the collected values. Unset values
// are omitted so the envDefault of each field applies.
func (s *InstallState) Render() (string, error) {
	var b strings.Builder

	sections := []struct {
		title string
		cfg   any
	}{
		{"AI backend", &s.AI},
		{"Embeddings", &s.Embedding},
		{"Vector store", &s.Store},
		{"Telegram", &s.Telegram},
	}
	for _, sec := range sections {
		content, err := env.MarshalEnv(sec.cfg)
		if err != nil {
			return "", err
		}
		if content == "" {
			continue
		}
		b.WriteString("# " + sec.title + "\n")
		b.WriteString(content)
		b.WriteString("\n")
	}

	// false is a zero value and would be skipped
	if s.Telegram.Token == "" {
		b.WriteString("ENABLE_TELEGRAM=false\n")
	}
	if s.Debug {
		b.WriteString("TELEAI_DEBUG=1\n")
	}
	return b.String(), nil
}
