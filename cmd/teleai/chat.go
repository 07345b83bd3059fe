package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/teleai/internal/transport/cli"
	"github.com/sandevgo/teleai/pkg/srv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	Long:  `Runs the same agent as the Telegram bot against a local conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		bot := newBotStack(ctx)

		srv.StartServices(ctx, bot.services)
		defer srv.StopServices(ctx, bot.services)

		repl, err := cli.NewReadLine(bot.agent, bot.router, bot.appCfg)
		if err != nil {
			return err
		}
		defer repl.Shutdown(ctx)

		return repl.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
