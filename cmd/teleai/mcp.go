package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/transport/mcp"
	"github.com/sandevgo/teleai/pkg/log"
	"github.com/sandevgo/teleai/pkg/srv"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the chat context as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = log.NewContextWithLoggerTo(ctx, debug || config.IsDebug(), os.Stderr)
		defer flushLog()

		cs := newContextStack(ctx)
		if err := cs.mem.Connect(ctx); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("serving flat history only")
		}
		defer srv.StopServices(ctx, cs.services)

		return mcp.NewServer(cs.mem, os.Stdin, os.Stdout).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
