package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/conv"
	"github.com/sandevgo/teleai/pkg/log"
)

const defaultSessionID = "cli-local"

type Responder interface {
	Observe(ctx context.Context, rec core.Record)
	Answer(ctx context.Context, in core.Record, question string) (string, error)
}

type ReadLine struct {
	cfg    *config.AppConfig
	agent  Responder
	router core.CmdRouter
	rl     *readline.Instance
	chat   core.Chat
	author string
	seq    int
}

func NewReadLine(agent Responder, router core.CmdRouter, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     cfg.GetHistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:    cfg,
		agent:  agent,
		router: router,
		rl:     rl,
		chat:   core.Chat{ID: defaultSessionID, Title: "terminal", Type: "private"},
		author: localUser(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		out, err := r.handle(ctx, line)
		if err != nil {
			logger.Error().Err(err).Msg("failed to answer")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", conv.PlainText(out))
		}
	}
}

func (r *ReadLine) handle(ctx context.Context, line string) (string, error) {
	if out, ok := r.router.Execute(ctx, r.chat, 0, line); ok {
		return out, nil
	}

	r.seq++
	rec := core.NewRecord(r.chat, "local", r.author, false, line, time.Now(), fmt.Sprintf("%d", r.seq))
	r.agent.Observe(ctx, rec)
	return r.agent.Answer(ctx, rec, line)
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "you"
}
