// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that lets only configured admin users
// through. Anyone else gets the unauthorized message.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if !allowAdmin(ctx, deps, bot, update) {
				return
			}
			next(ctx, bot, update)
		}
	}
}

// allowAdmin reports whether update comes from an admin and answers the
// sender otherwise.
func allowAdmin(ctx context.Context, deps HandlerDeps, m Messenger, update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}

	userID := update.Message.From.ID
	if deps.Config.IsAdmin(userID) {
		return true
	}

	log := deps.Logger.With("middleware", "AdminOnly")
	log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", update.Message.Chat.ID)
	reply(ctx, m, log, update.Message, deps.Config.Messages.Unauthorized, nil)
	return false
}
