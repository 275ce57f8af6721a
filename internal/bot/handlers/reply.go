package handlers

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/threec/aurion/internal/database"
)

// reply sends text to the chat of msg, inside its forum topic if any.
func reply(ctx context.Context, m Messenger, log *slog.Logger, msg *models.Message, text string, markup models.ReplyMarkup) bool {
	params := &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text,
	}
	if msg.IsTopicMessage {
		params.MessageThreadID = msg.MessageThreadID
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := m.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", msg.Chat.ID)
		return false
	}
	return true
}

// commandArgs returns the text after the leading /command word.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	i := strings.IndexAny(text, " \n\t")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i+1:])
}

// processingMessage picks one of the configured "still thinking" texts.
func processingMessage(options []string) string {
	if len(options) == 0 {
		return "…"
	}
	return options[rand.IntN(len(options))]
}

// matchKeyword returns the response of the first keyword contained in
// text, ignoring case.
func matchKeyword(keywords []database.KeywordResponse, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		kw := strings.ToLower(strings.TrimSpace(k.Keyword))
		if kw != "" && strings.Contains(lower, kw) {
			return k.Response, true
		}
	}
	return "", false
}

// displayName is the first name of u, or its @username.
func displayName(u models.User) string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Champ"
	}
}
