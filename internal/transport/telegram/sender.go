package telegram

import (
	"context"
	"strings"

	"github.com/sandevgo/teleai/pkg/conv"
	"github.com/sandevgo/teleai/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type sender struct {
	bot messageSender
}

func newSender(bot messageSender) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks.
// A chunk Telegram rejects as HTML is resent as plain text.
func (s *sender) sendMarkdown(ctx context.Context, in *tele.Message, md string) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	for i, chunk := range conv.SplitText(html, maxTelegramMsgLen) {
		if _, err := s.bot.Send(in.Chat, chunk, s.options(in, tele.ModeHTML)); err != nil {
			logger.Warn().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("html rejected, sending plain text")
			if err := s.sendPlain(ctx, in, conv.HTMLToText(chunk)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sender) sendPlain(ctx context.Context, in *tele.Message, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for i, chunk := range conv.SplitText(text, maxTelegramMsgLen) {
		if _, err := s.bot.Send(in.Chat, chunk, s.options(in, tele.ModeDefault)); err != nil {
			log.FromCtx(ctx).Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// options quote the inbound message in groups.
func (s *sender) options(in *tele.Message, mode tele.ParseMode) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: mode}
	if in.Chat != nil && in.Chat.Type != tele.ChatPrivate {
		opts.ReplyTo = in
	}
	return opts
}
