package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teleai/pkg/log"
)

const defaultPersonality = `You are Mimi, a highly intelligent, always helpful and friendly AI agent.
Be nice, friendly and positive when answering questions.
You are creative, humorous, empathetic and patient, and you explain things in an understandable way.
Answer in short sentences and paragraphs, use emojis where appropriate.`

type AppConfig struct {
	RuntimePath string `env:"TELEAI_RUNTIME_PATH" envDefault:".teleai"`
	Personality string `env:"BOT_PERSONALITY"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = GetRuntimePath()
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetPersonality() string {
	if c.Personality == "" {
		return defaultPersonality
	}
	return c.Personality
}

func (c AppConfig) GetSystemPath() string {
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c AppConfig) GetIdentityPath() string {
	return filepath.Join(c.RuntimePath, "IDENTITY.md")
}

func (c AppConfig) GetContextDir() string {
	return filepath.Join(c.RuntimePath, "context")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "teleai.db")
}

func (c AppConfig) GetHistoryPath() string {
	return filepath.Join(c.RuntimePath, "input_history")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
