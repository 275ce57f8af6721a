// Package llm wraps the hosted completion APIs used to answer /ask questions.
// Two providers are supported, OpenAI chat completions and Google Gemini.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/threec/aurion/internal/config"
)

// ErrDisabled is returned by NewClient when no API key is configured.
var ErrDisabled = errors.New("llm provider not configured")

// ErrEmptyResponse is returned when the provider answers without text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Client produces a single completion for a system prompt and a user prompt.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewClient builds the client for cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg, log), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
