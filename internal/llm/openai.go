package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/logger"
)

// OpenAIClient calls the chat completions endpoint.
type OpenAIClient struct {
	client      openai.Client
	log         *slog.Logger
	model       string
	maxTokens   int64
	temperature float64
}

// NewOpenAIClient creates a client. Retries on 429 and 5xx are handled by
// the SDK according to cfg.MaxRetries.
func NewOpenAIClient(cfg config.LLMConfig, log *slog.Logger) *OpenAIClient {
	if log == nil {
		log = logger.Discard()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	l := log.With("component", "openai_client")
	l.Info("OpenAI client initialized", "model", cfg.Model)
	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		log:         l,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: float64(cfg.Temperature),
	}
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.log.ErrorContext(ctx, "OpenAI completion failed", "error", err)
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.log.DebugContext(ctx, "OpenAI completion finished",
		"model", completion.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens)
	return text, nil
}
