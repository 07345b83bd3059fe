package installer

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/teleai/internal/config"
)

// FinalizationStep fills derived values
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return next()
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.Store.Backend == config.StoreSQLite {
		// the default, keep the .env short
		state.Store.Backend = ""
	}
	if state.Embedding.Provider == config.EmbeddingOllama && state.Embedding.BaseURL == "" && state.AI.Backend == "ollama" {
		state.Embedding.BaseURL = state.AI.BaseURL
	}
	state.Debug = config.IsDebug()

	// Signal completion
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}
