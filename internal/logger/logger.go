// Package logger provides structured logging for Aurion.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a stdout slog Logger and installs it as the default.
// If jsonOutput is true, logs are formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a slog Logger writing to w.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used by tests and as a
// fallback when a component receives a nil logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs the type, ids and a text preview of each update and how long it took.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)
			for _, attr := range describeUpdate(update) {
				logEntry = logEntry.With(attr)
			}

			logEntry.DebugContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func describeUpdate(update *models.Update) []slog.Attr {
	switch {
	case update.Message != nil:
		msg := update.Message
		attrs := []slog.Attr{
			slog.String("update_type", messageKind(msg)),
			slog.Int("message_id", msg.ID),
			slog.Int64("chat_id", msg.Chat.ID),
		}
		if msg.From != nil {
			attrs = append(attrs, slog.Int64("user_id", msg.From.ID))
		}
		if msg.MessageThreadID != 0 {
			attrs = append(attrs, slog.Int("thread_id", msg.MessageThreadID))
		}
		if msg.Text != "" {
			attrs = append(attrs, slog.String("text_preview", truncateString(msg.Text, 50)))
		}
		return attrs
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		attrs := []slog.Attr{
			slog.String("update_type", "callback_query"),
			slog.String("callback_query_id", cq.ID),
			slog.Int64("user_id", cq.From.ID),
			slog.String("data", cq.Data),
		}
		switch {
		case cq.Message.Message != nil:
			attrs = append(attrs, slog.Int64("chat_id", cq.Message.Message.Chat.ID), slog.Bool("message_accessible", true))
		case cq.Message.InaccessibleMessage != nil:
			attrs = append(attrs, slog.Int64("chat_id", cq.Message.InaccessibleMessage.Chat.ID), slog.Bool("message_accessible", false))
		}
		return attrs
	case update.ChatMember != nil:
		return []slog.Attr{
			slog.String("update_type", "chat_member"),
			slog.Int64("chat_id", update.ChatMember.Chat.ID),
		}
	default:
		return []slog.Attr{slog.String("update_type", "other")}
	}
}

func messageKind(msg *models.Message) string {
	switch {
	case len(msg.NewChatMembers) > 0:
		return "new_chat_members"
	case msg.LeftChatMember != nil:
		return "left_chat_member"
	default:
		return "message"
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
