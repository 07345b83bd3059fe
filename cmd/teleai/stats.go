package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/teleai/internal/service/memory"
	"github.com/sandevgo/teleai/internal/service/ui"
	"github.com/sandevgo/teleai/pkg/srv"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print context store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		cs := newContextStack(ctx)
		defer srv.StopServices(ctx, cs.services)

		// connect errors are visible in the state row
		_ = cs.mem.Connect(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), renderStats(cs.mem.Stats(ctx), cs.mem.LastError()))
		return nil
	},
}

func renderStats(st memory.Stats, lastErr string) string {
	rows := [][2]string{
		{"State", st.State.String()},
		{"Backend", st.Backend},
		{"Semantic search", strconv.FormatBool(st.StoreEnabled)},
		{"Embeddings", st.EmbeddingMode},
		{"Records", strconv.Itoa(st.RecordCount)},
		{"Conversations", strconv.Itoa(st.ConversationCount)},
		{"Flat conversations", strconv.Itoa(st.FlatConversations)},
		{"Flat lines", strconv.Itoa(st.FlatLines)},
		{"Flat bytes", strconv.FormatInt(st.FlatBytes, 10)},
	}
	if lastErr != "" {
		rows = append(rows, [2]string{"Last error", lastErr})
	}

	label := ui.UsageStyle.Width(20)
	lines := []string{ui.TitleStyle.Render("CONTEXT STATS")}
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r[0]), ui.DescStyle.Render(r[1])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
