package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teleai/pkg/log"
)

const (
	StoreSQLite = "sqlite"
	StoreQdrant = "qdrant"
)

type StoreConfig struct {
	Backend          string        `env:"VECTOR_STORE" envDefault:"sqlite"`
	QdrantURL        string        `env:"QDRANT_URL" envDefault:"http://qdrant:6334"`
	QdrantAPIKey     string        `env:"QDRANT_API_KEY"`
	QdrantCollection string        `env:"QDRANT_COLLECTION" envDefault:"chat_context"`
	Timeout          time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	ConnectRetries   int           `env:"STORE_CONNECT_RETRIES" envDefault:"5"`
	ConnectDelay     time.Duration `env:"STORE_CONNECT_DELAY" envDefault:"2s"`
	HealthInterval   time.Duration `env:"STORE_HEALTH_INTERVAL" envDefault:"30s"`
}

func NewStoreConfig(ctx context.Context) *StoreConfig {
	c := &StoreConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Store config")
	}
	return c
}
