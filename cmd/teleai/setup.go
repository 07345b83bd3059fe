package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/providers/llm"
	"github.com/sandevgo/teleai/internal/providers/rag"
	"github.com/sandevgo/teleai/internal/service/agent"
	"github.com/sandevgo/teleai/internal/service/command"
	"github.com/sandevgo/teleai/internal/service/memory"
	"github.com/sandevgo/teleai/internal/storage/flatlog"
	"github.com/sandevgo/teleai/internal/storage/qdrant"
	"github.com/sandevgo/teleai/internal/storage/sqlite"
	"github.com/sandevgo/teleai/internal/transport/telegram"
	"github.com/sandevgo/teleai/pkg/log"
	"github.com/sandevgo/teleai/pkg/srv"
)

// contextStack is the context subsystem shared by every command.
type contextStack struct {
	appCfg   *config.AppConfig
	ctxCfg   *config.ContextConfig
	storeCfg *config.StoreConfig
	mem      *memory.Manager
	services []srv.Service
}

// botStack adds the AI backend, the agent and the command router.
type botStack struct {
	*contextStack
	tgCfg  *config.TelegramConfig
	agent  *agent.Agent
	router *command.Router
}

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)

	bot := newBotStack(ctx)
	services := bot.services

	// Transports
	if bot.tgCfg != nil {
		tg, err := telegram.NewBot(ctx, bot.tgCfg, bot.agent, bot.router)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram transport")
		}
		services = append(services, tg)
	} else {
		logger.Warn().Msg("telegram disabled, nothing will answer; use 'teleai chat' for the terminal")
	}

	return services
}

func newContextStack(ctx context.Context) *contextStack {
	logger := log.FromCtx(ctx)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ctxCfg := config.NewContextConfig(ctx)
	storeCfg := config.NewStoreConfig(ctx)
	embCfg := config.NewEmbeddingConfig(ctx)

	var services []srv.Service

	// 2. Embeddings
	encoder, err := rag.NewEncoder(ctx, embCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedding provider")
	}
	embedder := rag.NewEmbedderWithTimeout(encoder, embCfg.Timeout).WithChunking(rag.ChunkerConfigFor(embCfg.Model))
	services = append(services, srv.NewCleanup(embedder.Shutdown))

	// 3. Storage
	store, err := initStore(ctx, appCfg, storeCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vector store")
	}

	flat, err := flatlog.NewStore(appCfg.GetContextDir(), ctxCfg.MaxLines)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize flat history")
	}

	// 4. Context manager and its health monitor
	mem := memory.NewManager(ctxCfg, storeCfg, store, embedder, flat)
	services = append(services, mem, memory.NewMonitor(mem, storeCfg.HealthInterval))

	return &contextStack{
		appCfg:   appCfg,
		ctxCfg:   ctxCfg,
		storeCfg: storeCfg,
		mem:      mem,
		services: services,
	}
}

func newBotStack(ctx context.Context) *botStack {
	logger := log.FromCtx(ctx)
	cs := newContextStack(ctx)

	aiCfg := config.NewAIConfig(ctx)
	aiProvider, err := llm.NewProvider(ctx, aiCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	ag := agent.NewAgent(aiProvider, cs.mem, agent.NewSysPrompt(cs.appCfg), cs.ctxCfg)

	var (
		tgCfg  *config.TelegramConfig
		admins command.AdminPolicy
	)
	if cs.appCfg.IsTelegramSelected() {
		tgCfg = config.NewTelegramConfig(ctx)
		admins = tgCfg
	}
	router := command.New(command.NewCommands(cs.appCfg.GetPersonality(), cs.mem, admins))

	return &botStack{
		contextStack: cs,
		tgCfg:        tgCfg,
		agent:        ag,
		router:       router,
	}
}

func initStore(ctx context.Context, appCfg *config.AppConfig, cfg *config.StoreConfig) (core.VectorStore, error) {
	switch cfg.Backend {
	case config.StoreQdrant:
		log.FromCtx(ctx).Info().Str("url", cfg.QdrantURL).Str("collection", cfg.QdrantCollection).Msg("using qdrant vector store")
		store, err := qdrant.NewStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite, "":
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		log.FromCtx(ctx).Info().Str("path", appCfg.GetDatabasePath()).Msg("using sqlite vector store")
		return sqlite.NewRecordStore(db), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Backend)
	}
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
