// Package telegram handles the setup and registration of Telegram bot handlers.
package telegram

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/threec/aurion/internal/bot/handlers"
	"github.com/threec/aurion/internal/logger"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, log *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token", maskToken(token))
	return b, nil
}

// maskToken keeps the bot id part of a token and hides the secret.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// HandlerRegistrar is the registration method of *bot.Bot.
type HandlerRegistrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
}

// RegisterHandlers registers command and callback handlers, wrapping each
// in its own middleware. b must be a live bot: the nil check only catches
// a nil interface, not a nil *bot.Bot stored in one.
func RegisterHandlers(b HandlerRegistrar, log *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	registered := 0
	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name, "pattern", regHandler.Pattern)
			continue
		}

		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler", "name", name, "pattern", regHandler.Pattern, "middleware_count", len(regHandler.Middleware))
		registered++
	}

	log.Info("Registered Telegram handlers successfully", "count", registered)
	return nil
}
