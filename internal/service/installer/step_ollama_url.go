package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// OllamaURLStep asks for the Ollama address when Ollama serves chat.
type OllamaURLStep struct {
	input textinput.Model
}

func NewOllamaURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Placeholder = "http://127.0.0.1:11434"
	return &OllamaURLStep{input: ti}
}

func (s *OllamaURLStep) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, next())
}

func (s *OllamaURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.AI.Backend != "ollama" {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = s.input.Placeholder
		}
		state.AI.BaseURL = val
		return nil, nil
	}

	return s, cmd
}

func (s *OllamaURLStep) View(state *InstallState) string {
	return "Enter Ollama Base URL:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
}

// QdrantURLStep asks for the Qdrant address when Qdrant was selected.
type QdrantURLStep struct {
	input textinput.Model
}

func NewQdrantURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Placeholder = "http://127.0.0.1:6334"
	ti.Width = 50
	return &QdrantURLStep{input: ti}
}

func (s *QdrantURLStep) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, next())
}

func (s *QdrantURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.Store.Backend != "qdrant" {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = s.input.Placeholder
		}
		state.Store.QdrantURL = val
		return nil, nil
	}
	return s, cmd
}

func (s *QdrantURLStep) View(state *InstallState) string {
	return "Enter Qdrant gRPC URL:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
}
