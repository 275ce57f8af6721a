package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/llm"
)

// HandlerDeps provides dependencies for Telegram command handlers.
// LLM is nil when no provider key is configured.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	LLM    llm.Client
}

// Messenger is the part of the Bot API the handlers call. *bot.Bot
// satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}
