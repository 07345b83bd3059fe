package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/service/memory"
	"github.com/sandevgo/teleai/pkg/log"
)

// ContextService is what the MCP tools expose.
type ContextService interface {
	SearchContext(ctx context.Context, conversationID, question string) (string, error)
	RetrieveFlatContext(ctx context.Context, conversationID string) string
	Stats(ctx context.Context) memory.Stats
}

// Server publishes the chat context of the bot as MCP tools over stdio.
type Server struct {
	mem ContextService
	srv *server.MCPServer
	in  io.Reader
	out io.Writer
}

func NewServer(mem ContextService, in io.Reader, out io.Writer) *Server {
	s := &Server{
		mem: mem,
		srv: server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false)),
		in:  in,
		out: out,
	}

	s.srv.AddTool(mcpproto.NewTool("search_context",
		mcpproto.WithDescription("Return the chat history of a conversation that is relevant to a question, oldest first."),
		mcpproto.WithString("conversation_id", mcpproto.Required(), mcpproto.Description("Telegram chat id")),
		mcpproto.WithString("question", mcpproto.Required(), mcpproto.Description("Question to rank history against")),
	), s.searchContext)

	s.srv.AddTool(mcpproto.NewTool("flat_context",
		mcpproto.WithDescription("Return the recent plain chat log of a conversation."),
		mcpproto.WithString("conversation_id", mcpproto.Required(), mcpproto.Description("Telegram chat id")),
	), s.flatContext)

	s.srv.AddTool(mcpproto.NewTool("context_stats",
		mcpproto.WithDescription("Return counts and connection state of the context store."),
	), s.contextStats)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("serving mcp over stdio")
	return server.NewStdioServer(s.srv).Listen(ctx, s.in, s.out)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) searchContext(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	convID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	history, err := s.mem.SearchContext(ctx, convID, question)
	if errors.Is(err, core.ErrNotConnected) {
		return mcpproto.NewToolResultError("vector store not connected, use flat_context"), nil
	}
	if err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if history == "" {
		return mcpproto.NewToolResultText("No relevant history found."), nil
	}
	return mcpproto.NewToolResultText(history), nil
}

func (s *Server) flatContext(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	convID, err := req.RequireString("conversation_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	history := s.mem.RetrieveFlatContext(ctx, convID)
	if history == "" {
		return mcpproto.NewToolResultText("No history found."), nil
	}
	return mcpproto.NewToolResultText(history), nil
}

type statsView struct {
	State             string `json:"state"`
	Backend           string `json:"backend"`
	SearchEnabled     bool   `json:"search_enabled"`
	EmbeddingMode     string `json:"embedding_mode"`
	Records           int    `json:"records"`
	Conversations     int    `json:"conversations"`
	FlatConversations int    `json:"flat_conversations"`
	FlatLines         int    `json:"flat_lines"`
	FlatBytes         int64  `json:"flat_bytes"`
}

func (s *Server) contextStats(ctx context.Context, _ mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	st := s.mem.Stats(ctx)
	data, err := json.MarshalIndent(statsView{
		State:             st.State.String(),
		Backend:           st.Backend,
		SearchEnabled:     st.StoreEnabled,
		EmbeddingMode:     st.EmbeddingMode,
		Records:           st.RecordCount,
		Conversations:     st.ConversationCount,
		FlatConversations: st.FlatConversations,
		FlatLines:         st.FlatLines,
		FlatBytes:         st.FlatBytes,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
