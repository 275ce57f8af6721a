package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/threec/aurion/internal/database"
)

// FAQCallbackPrefix prefixes the callback data of FAQ buttons.
const FAQCallbackPrefix = "faq_"

// NewFAQHandler returns a handler for /faq.
func NewFAQHandler(deps HandlerDeps) bot.HandlerFunc {
	return faqHandler{deps}.Handle
}

type faqHandler struct {
	deps HandlerDeps
}

func (h faqHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h faqHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "faq")
	if update.Message == nil {
		return
	}
	msg := update.Message

	entries, err := h.deps.Store.ListFAQ(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list FAQ", "error", err, "chat_id", msg.Chat.ID)
		reply(ctx, m, log, msg, h.deps.Config.Messages.GeneralError, nil)
		return
	}
	if len(entries) == 0 {
		reply(ctx, m, log, msg, h.deps.Config.Messages.FAQEmpty, nil)
		return
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         e.Question,
			CallbackData: FAQCallbackPrefix + strconv.FormatInt(e.ID, 10),
		}})
	}
	reply(ctx, m, log, msg, h.deps.Config.Messages.FAQHeader, &models.InlineKeyboardMarkup{InlineKeyboard: rows})
}

// NewFAQCallbackHandler returns the handler for FAQ button presses. It
// replaces the keyboard message with the selected answer.
func NewFAQCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return faqCallbackHandler{deps}.Handle
}

type faqCallbackHandler struct {
	deps HandlerDeps
}

func (h faqCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h faqCallbackHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "faq_callback")
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	if _, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}

	answer := h.deps.Config.Messages.FAQNotFound
	id, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, FAQCallbackPrefix), 10, 64)
	if err == nil {
		entry, err := h.deps.Store.GetFAQ(ctx, id)
		switch {
		case err == nil:
			answer = entry.Answer
		case !errors.Is(err, database.ErrNotFound):
			log.ErrorContext(ctx, "Failed to load FAQ entry", "error", err, "faq_id", id)
			answer = h.deps.Config.Messages.GeneralError
		}
	} else {
		log.WarnContext(ctx, "Malformed FAQ callback data", "data", cq.Data)
	}

	params := &bot.EditMessageTextParams{Text: answer}
	switch {
	case cq.Message.Message != nil:
		params.ChatID = cq.Message.Message.Chat.ID
		params.MessageID = cq.Message.Message.ID
	case cq.Message.InaccessibleMessage != nil:
		params.ChatID = cq.Message.InaccessibleMessage.Chat.ID
		params.MessageID = cq.Message.InaccessibleMessage.MessageID
	case cq.InlineMessageID != "":
		params.InlineMessageID = cq.InlineMessageID
	default:
		log.WarnContext(ctx, "Callback query without message", "callback_id", cq.ID)
		return
	}

	if _, err := m.EditMessageText(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to edit FAQ message", "error", err)
	}
}
