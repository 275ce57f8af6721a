package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/llm"
)

// NewAskHandler returns a handler for /ask <question>.
func NewAskHandler(deps HandlerDeps) bot.HandlerFunc {
	return askHandler{deps}.Handle
}

// askHandler answers from the FAQ table first, then keyword responses,
// and finally the LLM.
type askHandler struct {
	deps HandlerDeps
}

func (h askHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h askHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "ask")
	msgs := h.deps.Config.Messages

	if update.Message == nil {
		log.WarnContext(ctx, "Ask handler received update with nil message", "update_id", update.ID)
		return
	}
	msg := update.Message

	question := commandArgs(msg.Text)
	if question == "" {
		reply(ctx, m, log, msg, msgs.AskPrompt, nil)
		return
	}

	log.InfoContext(ctx, "Handling /ask command", "chat_id", msg.Chat.ID, "question_len", len(question))
	reply(ctx, m, log, msg, processingMessage(msgs.Processing), nil)

	answer, source, err := h.answer(ctx, question)
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer question", "error", err, "chat_id", msg.Chat.ID)
		reply(ctx, m, log, msg, fmt.Sprintf(msgs.AskErrorFmt, err), nil)
		return
	}

	if reply(ctx, m, log, msg, answer, nil) {
		log.DebugContext(ctx, "Answered question", "chat_id", msg.Chat.ID, "source", source)
	}
}

// answer resolves question and reports which source produced the answer.
func (h askHandler) answer(ctx context.Context, question string) (string, string, error) {
	entry, err := h.deps.Store.MatchFAQ(ctx, question)
	switch {
	case err == nil:
		return entry.Answer, "faq", nil
	case !errors.Is(err, database.ErrNotFound):
		return "", "", err
	}

	keywords, err := h.deps.Store.ListKeywords(ctx)
	if err != nil {
		return "", "", err
	}
	if response, ok := matchKeyword(keywords, question); ok {
		return response, "keyword", nil
	}

	if h.deps.LLM == nil {
		return h.deps.Config.Messages.AskUnavailable, "unavailable", nil
	}

	text, err := h.deps.LLM.Complete(ctx, h.deps.Config.LLM.SystemPrompt, question)
	if err != nil {
		return "", "", err
	}
	return llm.EnsureSignoff(text, h.deps.Config.Community.Signoff), "llm", nil
}
