package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

var suggestedModels = map[string][]item{
	"ollama": {
		{id: "gemma3n:e2b", title: "Gemma 3n E2B", desc: "small, runs on CPU"},
		{id: "llama3.2:3b", title: "Llama 3.2 3B"},
		{id: "qwen3:8b", title: "Qwen3 8B", desc: "emits <think> blocks"},
		{id: "mistral-small3.2", title: "Mistral Small 3.2"},
	},
	"openai": {
		{id: "gpt-4o-mini", title: "GPT-4o mini"},
		{id: "gpt-4.1", title: "GPT-4.1"},
	},
	"anthropic": {
		{id: "claude-3-5-haiku-latest", title: "Claude 3.5 Haiku"},
		{id: "claude-sonnet-4-0", title: "Claude Sonnet 4"},
	},
	"openrouter": {
		{id: "openai/gpt-4o-mini", title: "OpenAI GPT-4o mini"},
		{id: "anthropic/claude-sonnet-4", title: "Anthropic Claude Sonnet 4"},
		{id: "google/gemini-2.5-flash", title: "Google Gemini 2.5 Flash"},
	},
	"perplexity": {
		{id: "sonar", title: "Sonar"},
		{id: "sonar-pro", title: "Sonar Pro"},
	},
}

// ModelStep picks the chat model of the selected backend.
type ModelStep struct {
	list   list.Model
	loaded bool
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{list: l}
}

func (s *ModelStep) Init() tea.Cmd {
	return next()
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.loaded {
		s.loaded = true
		return s, func() tea.Msg {
			return modelsMsg(modelItems(state.AI.Backend))
		}
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		if len(msg) == 0 {
			return nil, nil
		}
		s.list.SetItems(msg)
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.AI.Model = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if len(s.list.Items()) == 0 {
		return fmt.Sprintf("Loading models for %s...\n", state.AI.Backend)
	}
	return s.list.View()
}

func modelItems(backend string) []list.Item {
	models := suggestedModels[backend]
	items := make([]list.Item, 0, len(models))
	for _, m := range models {
		if m.desc == "" {
			m.desc = "ID: " + m.id
		}
		items = append(items, m)
	}
	return items
}
