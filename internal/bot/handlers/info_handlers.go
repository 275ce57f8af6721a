package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/threec/aurion/internal/database"
)

// infoHandler serves the read-only informational commands. Each command
// is a render function producing the reply text and optional keyboard.
type infoHandler struct {
	deps   HandlerDeps
	name   string
	render func(ctx context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error)
}

func newInfoHandler(deps HandlerDeps, name string, render func(context.Context, HandlerDeps) (string, models.ReplyMarkup, error)) bot.HandlerFunc {
	return infoHandler{deps: deps, name: name, render: render}.Handle
}

func (h infoHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h infoHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)
	if update.Message == nil {
		return
	}

	text, markup, err := h.render(ctx, h.deps)
	if err != nil {
		log.ErrorContext(ctx, "Failed to render reply", "error", err, "chat_id", update.Message.Chat.ID)
		text, markup = h.deps.Config.Messages.GeneralError, nil
	}
	reply(ctx, m, log, update.Message, text, markup)
}

// NewFactHandler returns a handler for /fact.
func NewFactHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "fact", renderFact)
}

func renderFact(ctx context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	fact, err := deps.Store.RandomFact(ctx)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return deps.Config.Messages.FactEmpty, nil, nil
	case err != nil:
		return "", nil, err
	}
	return fmt.Sprintf(deps.Config.Messages.FactFmt, fact.Text), nil, nil
}

// NewResourcesHandler returns a handler for /resources.
func NewResourcesHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "resources", renderResources)
}

func renderResources(ctx context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	resources, err := deps.Store.ListResources(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(resources) == 0 {
		return deps.Config.Messages.ResourcesEmpty, nil, nil
	}

	var sb strings.Builder
	sb.WriteString(deps.Config.Messages.ResourcesHeader)
	for _, r := range resources {
		fmt.Fprintf(&sb, "\n• %s: %s", r.Title, r.Link)
	}
	return sb.String(), nil, nil
}

// NewRulesHandler returns a handler for /rules.
func NewRulesHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "rules", renderRules)
}

func renderRules(_ context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	return fmt.Sprintf(deps.Config.Messages.RulesFmt, deps.Config.Community.RulesURL), nil, nil
}

// NewIDHandler returns a handler for /id.
func NewIDHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "id", renderID)
}

func renderID(_ context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	return fmt.Sprintf(deps.Config.Messages.IDFmt, deps.Config.Community.WebAppURL), nil, nil
}

// NewHashtagsHandler returns a handler for /hashtags.
func NewHashtagsHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "hashtags", renderHashtags)
}

func renderHashtags(_ context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	msgs := deps.Config.Messages
	text := msgs.HashtagsHeader + "\n" + strings.Join(deps.Config.Community.Hashtags, "\n")
	if msgs.HashtagsFooter != "" {
		text += "\n\n" + msgs.HashtagsFooter
	}
	return text, nil, nil
}

// NewTopicsHandler returns a handler for /topics. Every topic becomes a
// URL button.
func NewTopicsHandler(deps HandlerDeps) bot.HandlerFunc {
	return newInfoHandler(deps, "topics", renderTopics)
}

func renderTopics(_ context.Context, deps HandlerDeps) (string, models.ReplyMarkup, error) {
	topics := deps.Config.Community.Topics
	rows := make([][]models.InlineKeyboardButton, 0, len(topics))
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		if t.URL == "" {
			names = append(names, t.Name)
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{Text: t.Name, URL: t.URL}})
	}

	text := deps.Config.Messages.TopicsHeader
	if len(names) > 0 {
		text += "\n" + strings.Join(names, "\n")
	}
	if len(rows) == 0 {
		return text, nil, nil
	}
	return text, &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}
