package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/logger"
)

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	model       string
	maxTokens   int32
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
}

// NewGeminiClient creates a Gemini client from cfg.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if log == nil {
		log = logger.Discard()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	l := log.With("component", "gemini_client")
	l.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &GeminiClient{
		genaiClient: gi,
		log:         l,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	temperature := c.temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: c.maxTokens,
	}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents, genCfg)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w (finish reason: %s)", ErrEmptyResponse, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// generateContentWithRetries retries 500 and 503 responses up to maxRetries
// times with a fixed delay.
func (c *GeminiClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr genai.APIError
		var apiErrPtr *genai.APIError
		code := 0
		switch {
		case errors.As(err, &apiErr):
			code = apiErr.Code
		case errors.As(err, &apiErrPtr):
			code = apiErrPtr.Code
		}

		if code != 500 && code != 503 {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if i == c.maxRetries {
			break
		}

		c.log.WarnContext(ctx, "Retrying Gemini API call", "attempt", i+1, "max_retries", c.maxRetries, "code", code, "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", lastErr)
	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, lastErr)
}
