package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSONFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", true)
	log.Info("hidden")
	log.Warn("shown", "component", "dispatcher")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "dispatcher", entry["component"])
}

func TestDescribeUpdate(t *testing.T) {
	t.Parallel()

	joined := &models.Update{Message: &models.Message{
		ID:             5,
		Chat:           models.Chat{ID: -100},
		NewChatMembers: []models.User{{ID: 7}},
	}}
	attrs := describeUpdate(joined)
	assert.Equal(t, "new_chat_members", attrs[0].Value.String())

	cb := &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "q",
		From: models.User{ID: 9},
		Data: "faq_1",
		Message: models.MaybeInaccessibleMessage{
			InaccessibleMessage: &models.InaccessibleMessage{Chat: models.Chat{ID: -5}},
		},
	}}
	attrs = describeUpdate(cb)
	assert.Equal(t, "callback_query", attrs[0].Value.String())
	assert.Equal(t, slog.Bool("message_accessible", false), attrs[len(attrs)-1])

	assert.Equal(t, "other", describeUpdate(&models.Update{})[0].Value.String())
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", truncateString("hello", 10))
	assert.Equal(t, "héll...", truncateString("héllo wörld", 7))
	assert.Equal(t, "...", truncateString("hello", 2))
}
