package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler sends the full welcome once per user and a short
// "still thinking" line on every later /start.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h startHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	msg := update.Message

	log.InfoContext(ctx, "Handling /start command", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	first, err := h.deps.Store.MarkGreeted(ctx, msg.From.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to record greeted user", "error", err, "user_id", msg.From.ID)
		reply(ctx, m, log, msg, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	text := processingMessage(h.deps.Config.Messages.Processing)
	if first {
		text = strings.ReplaceAll(h.deps.Config.Messages.Welcome, "{links}", h.deps.Config.Community.WebAppURL)
	}
	if reply(ctx, m, log, msg, text, nil) {
		log.DebugContext(ctx, "Successfully sent start reply", "chat_id", msg.Chat.ID, "first_time", first)
	}
}
