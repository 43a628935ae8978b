// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat calls a hosted OpenAI-compatible chat-completion endpoint.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/invoice-dataset/internal/httputil"
	"github.com/pdiddy/invoice-dataset/pkg/types"
)

const (
	// DefaultBaseURL is PremAI's OpenAI-compatible API root.
	DefaultBaseURL = "https://studio.premai.io/api/v1"

	// DefaultModel is the model the invoice dataset was built with.
	DefaultModel = "claude-4-sonnet"
)

// ErrNoAPIKey is returned by New when no credential was configured.
var ErrNoAPIKey = errors.New("no API key configured: set PREMAI_API_KEY or api_key")

// Client sends chat-completion requests. It is built once per run and passed
// to the pipeline explicitly.
type Client struct {
	api     *openai.Client
	timeout time.Duration
	logger  *log.Logger
}

// New builds a client from cfg. A nil logger discards diagnostics.
func New(cfg types.AIConfig, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	conf.HTTPClient = httputil.NewRetryClient(cfg.RateLimitRetries)

	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger.Debug("chat client ready", "base_url", conf.BaseURL, "timeout", cfg.Timeout, "rate_limit_retries", cfg.RateLimitRetries)

	return &Client{
		api:     openai.NewClientWithConfig(conf),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Complete sends messages to model and returns the first choice's content.
// A response without choices yields "" and no error.
func (c *Client) Complete(ctx context.Context, model string, messages []types.ChatMessage) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Debug("completion failed", "model", model, "elapsed", time.Since(start), "err", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.logger.Debug("completion done", "model", model, "choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens,
		"elapsed", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
