package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/conv"
	"github.com/sandevgo/teleai/pkg/log"
)

const historyHeader = "Relevant chat history:\n"

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ContextSource is the part of the context manager the agent depends on.
type ContextSource interface {
	Store(ctx context.Context, rec core.Record)
	GetContextForQuestion(ctx context.Context, conversationID, question string) string
	RetrieveFlatContext(ctx context.Context, conversationID string) string
	IsAvailable() bool
}

// Identity is how the bot's own replies are attributed in history.
type Identity struct {
	ID   string
	Name string
}

type Agent struct {
	ai        core.AIProvider
	mem       ContextSource
	prompt    *SysPrompt
	flatLines int
	identity  atomic.Pointer[Identity]
}

func NewAgent(
	ai core.AIProvider,
	mem ContextSource,
	prompt *SysPrompt,
	ctxCfg *config.ContextConfig,
) *Agent {
	a := &Agent{
		ai:        ai,
		mem:       mem,
		prompt:    prompt,
		flatLines: ctxCfg.FlatContextLines,
	}
	a.identity.Store(&Identity{Name: core.AppName})
	return a
}

// SetIdentity is called once the transport knows the bot account.
func (a *Agent) SetIdentity(id Identity) {
	a.identity.Store(&id)
}

// Observe stores an inbound turn without answering it.
func (a *Agent) Observe(ctx context.Context, rec core.Record) {
	a.mem.Store(ctx, rec)
}

// Answer builds the prompt around the history relevant to question, asks the
// AI backend and stores the reply as a bot turn. The reply is Markdown.
// The inbound turn must already be stored through Observe.
func (a *Agent) Answer(ctx context.Context, in core.Record, question string) (string, error) {
	logger := log.FromCtx(ctx).With().Str("conversation", in.ConversationID).Logger()
	start := time.Now()

	history := a.history(ctx, in.ConversationID, question)

	messages := a.prompt.Build()
	if history != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: historyHeader + history})
		logger.Info().Msg("context added to request")
	} else {
		logger.Info().Msg("no relevant context found, request without chat history")
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: question})

	resp, err := a.ai.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("ai chat error: %w", err)
	}

	reply := cleanReply(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("ai returned an empty reply")
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("response generated")

	id := a.identity.Load()
	botRec := core.Record{
		ConversationID:    in.ConversationID,
		ConversationTitle: in.ConversationTitle,
		ConversationType:  in.ConversationType,
		AuthorID:          id.ID,
		AuthorName:        id.Name,
		AuthorIsBot:       true,
		Text:              conv.PlainText(reply),
		Timestamp:         time.Now().Format(core.TimestampLayout),
		MessageID:         in.MessageID,
	}
	a.mem.Store(ctx, botRec)

	return reply, nil
}

// history prefers semantic context and falls back to the tail of the flat
// log only when the vector store is down.
func (a *Agent) history(ctx context.Context, conversationID, question string) string {
	if h := a.mem.GetContextForQuestion(ctx, conversationID, question); h != "" {
		return h
	}
	if a.mem.IsAvailable() {
		return ""
	}

	log.FromCtx(ctx).Warn().Str("conversation", conversationID).Msg("vector store not available, using flat history")
	flat := strings.TrimSpace(a.mem.RetrieveFlatContext(ctx, conversationID))
	if flat == "" {
		return ""
	}
	lines := strings.Split(flat, "\n")
	if a.flatLines > 0 && len(lines) > a.flatLines {
		lines = lines[len(lines)-a.flatLines:]
	}
	return strings.Join(lines, "\n")
}

func cleanReply(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "<think>", "")
	s = strings.ReplaceAll(s, "</think>", "")
	return strings.TrimSpace(s)
}
