package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDefaultHandler returns the handler for updates no command matched:
// member joins and leaves, and plain text that contains a keyword.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h defaultHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	log := h.deps.Logger.With("handler", "default")
	msgs := h.deps.Config.Messages

	switch {
	case len(msg.NewChatMembers) > 0:
		for _, u := range msg.NewChatMembers {
			if u.IsBot {
				continue
			}
			log.InfoContext(ctx, "Welcoming new member", "chat_id", msg.Chat.ID, "user_id", u.ID)
			reply(ctx, m, log, msg, fmt.Sprintf(msgs.MemberWelcomeFmt, displayName(u)), nil)
		}

	case msg.LeftChatMember != nil:
		if msg.LeftChatMember.IsBot {
			return
		}
		log.InfoContext(ctx, "Member left", "chat_id", msg.Chat.ID, "user_id", msg.LeftChatMember.ID)
		reply(ctx, m, log, msg, msgs.Farewell, nil)

	case msg.Text != "" && !strings.HasPrefix(msg.Text, "/"):
		keywords, err := h.deps.Store.ListKeywords(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list keywords", "error", err, "chat_id", msg.Chat.ID)
			return
		}
		if response, ok := matchKeyword(keywords, msg.Text); ok {
			reply(ctx, m, log, msg, response, nil)
		}
	}
}
