package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// choiceStep is a cursor menu that stores the selected id through apply.
type choiceStep struct {
	title   string
	choices []item
	cursor  int
	apply   func(state *InstallState, id string)
}

func (s *choiceStep) Init() tea.Cmd {
	return nil
}

func (s *choiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			s.apply(state, s.choices[s.cursor].id)
			return nil, nil
		}
	}
	return s, nil
}

func (s *choiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, choice := range s.choices {
		line := fmt.Sprintf("%s %s", " ", choice.title)
		if s.cursor == i {
			line = fmt.Sprintf("%s %s", "❯", choice.title)
			b.WriteString(selStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		if choice.desc != "" {
			b.WriteString("  " + choice.desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

// NewProviderStep selects the AI backend.
func NewProviderStep() Step {
	return &choiceStep{
		title: "Select your AI Provider:",
		choices: []item{
			{id: "ollama", title: "Ollama", desc: "local models"},
			{id: "openai", title: "OpenAI"},
			{id: "anthropic", title: "Anthropic"},
			{id: "openrouter", title: "OpenRouter"},
			{id: "perplexity", title: "Perplexity", desc: "answers with web search"},
		},
		apply: func(state *InstallState, id string) {
			state.AI.Backend = id
		},
	}
}

// NewEmbeddingStep selects how messages are embedded.
func NewEmbeddingStep() Step {
	return &choiceStep{
		title: "Select the embedding provider for chat history search:",
		choices: []item{
			{id: "ollama", title: "Ollama", desc: "all-minilm"},
			{id: "openai", title: "OpenAI", desc: "text-embedding-3-small"},
			{id: "hash", title: "Offline hashing", desc: "no semantic search, keyword overlap only"},
		},
		apply: func(state *InstallState, id string) {
			state.Embedding.Provider = id
			switch id {
			case "ollama":
				state.Embedding.Model = "all-minilm"
				if state.AI.Backend == "ollama" {
					state.Embedding.BaseURL = state.AI.BaseURL
				}
			case "openai":
				state.Embedding.Model = "text-embedding-3-small"
				if state.AI.Backend == "openai" {
					state.Embedding.APIKey = state.AI.APIKey
				}
			}
		},
	}
}

// NewStoreStep selects the vector store backend.
func NewStoreStep() Step {
	return &choiceStep{
		title: "Where should chat history vectors be stored?",
		choices: []item{
			{id: "sqlite", title: "SQLite", desc: "embedded, no extra service"},
			{id: "qdrant", title: "Qdrant", desc: "external server"},
		},
		apply: func(state *InstallState, id string) {
			state.Store.Backend = id
		},
	}
}
