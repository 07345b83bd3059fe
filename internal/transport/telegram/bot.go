package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/service/agent"
	"github.com/sandevgo/teleai/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	baseContextKey = "base_context"
	failureReply   = "Sorry, there was a problem processing your request."
)

// Responder answers addressed messages and records everything else.
type Responder interface {
	Observe(ctx context.Context, rec core.Record)
	Answer(ctx context.Context, in core.Record, question string) (string, error)
	SetIdentity(id agent.Identity)
}

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	agent  Responder
	router core.CmdRouter
	sender *sender
	addr   *addressing
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	responder Responder,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if b.Me == nil {
		return nil, fmt.Errorf("telegram bot identity unavailable")
	}

	responder.SetIdentity(agent.Identity{
		ID:   strconv.FormatInt(b.Me.ID, 10),
		Name: displayName(b.Me),
	})
	log.FromCtx(ctx).Info().Str("username", b.Me.Username).Int64("id", b.Me.ID).Msg("telegram bot identity resolved")

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		agent:  responder,
		router: router,
		sender: newSender(b),
		addr:   newAddressing(b.Me.ID, b.Me.Username),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: only allowed chats
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil || !cfg.IsChatAllowed(c.Chat().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	for _, endpoint := range []string{tele.OnPhoto, tele.OnDocument, tele.OnVideo, tele.OnAnimation} {
		b.Handle(endpoint, bot.handleCaption)
	}

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	m := c.Message()
	logger := log.FromCtx(ctx).With().Int64("chat", m.Chat.ID).Logger()

	if out, ok := b.router.Execute(ctx, chatOf(m), senderID(m), m.Text); ok {
		return b.sender.sendMarkdown(ctx, m, out)
	}

	rec := recordOf(m, m.Text)
	b.agent.Observe(ctx, rec)

	question, ok := b.addr.question(m)
	if !ok {
		logger.Debug().Msg("group message not addressed to the bot")
		return nil
	}

	_ = c.Notify(tele.Typing)
	reply, err := b.agent.Answer(ctx, rec, question)
	if err != nil {
		logger.Error().Err(err).Msg("failed to answer")
		return b.sender.sendPlain(ctx, m, failureReply)
	}
	return b.sender.sendMarkdown(ctx, m, reply)
}

func (b *Bot) handleCaption(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	m := c.Message()
	if strings.TrimSpace(m.Caption) == "" {
		return nil
	}
	b.agent.Observe(ctx, recordOf(m, m.Caption))
	return nil
}

// addressing decides whether a message expects an answer.
type addressing struct {
	botID   int64
	mention *regexp.Regexp
}

func newAddressing(botID int64, username string) *addressing {
	a := &addressing{botID: botID}
	if username != "" {
		a.mention = regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(username) + `\b`)
	}
	return a
}

// question returns the text to answer. Private chats are always answered;
// groups only on a mention, which is stripped, or a reply to the bot.
func (a *addressing) question(m *tele.Message) (string, bool) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return "", false
	}
	if m.Chat == nil || m.Chat.Type == tele.ChatPrivate {
		return text, true
	}

	if a.mention != nil && a.mention.MatchString(text) {
		q := strings.TrimSpace(a.mention.ReplaceAllString(text, ""))
		return q, q != ""
	}
	if m.ReplyTo != nil && m.ReplyTo.Sender != nil && m.ReplyTo.Sender.ID == a.botID {
		return text, true
	}
	return "", false
}

func chatOf(m *tele.Message) core.Chat {
	if m.Chat == nil {
		return core.Chat{}
	}
	return core.Chat{
		ID:    strconv.FormatInt(m.Chat.ID, 10),
		Title: m.Chat.Title,
		Type:  string(m.Chat.Type),
	}
}

func senderID(m *tele.Message) int64 {
	if m.Sender == nil {
		return 0
	}
	return m.Sender.ID
}

func recordOf(m *tele.Message, text string) core.Record {
	var (
		authorID string
		name     = "unknown"
		isBot    bool
	)
	if m.Sender != nil {
		authorID = strconv.FormatInt(m.Sender.ID, 10)
		name = displayName(m.Sender)
		isBot = m.Sender.IsBot
	}

	at := m.Time()
	if m.Unixtime == 0 {
		at = time.Now()
	}
	return core.NewRecord(chatOf(m), authorID, name, isBot, text, at, strconv.Itoa(m.ID))
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}
