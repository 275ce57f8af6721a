package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewManualPostHandler returns a handler for /manual_post <message>. It is
// registered behind AdminOnly.
func NewManualPostHandler(deps HandlerDeps) bot.HandlerFunc {
	return manualPostHandler{deps}.Handle
}

type manualPostHandler struct {
	deps HandlerDeps
}

func (h manualPostHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h manualPostHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "manual_post")
	if update.Message == nil {
		return
	}
	msg := update.Message

	text := commandArgs(msg.Text)
	if text == "" {
		reply(ctx, m, log, msg, h.deps.Config.Messages.ManualPostUsage, nil)
		return
	}

	if reply(ctx, m, log, msg, fmt.Sprintf(h.deps.Config.Messages.ManualPostFmt, text), nil) {
		log.InfoContext(ctx, "Manual post sent", "chat_id", msg.Chat.ID)
	}
}
