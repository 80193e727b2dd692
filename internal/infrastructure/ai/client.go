package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ekenesbek/8pilot/internal/config"
	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// client implements domain.AIClient over OpenAI-compatible chat completion
// APIs. Anthropic and other providers are addressed through their
// compatibility endpoints, so one wire client serves every configured
// provider.
type client struct {
	cfg    config.AIConfig
	logger *slog.Logger
}

// NewClient creates a new AI gateway client.
func NewClient(cfg config.AIConfig, logger *slog.Logger) domain.AIClient {
	return &client{
		cfg:    cfg,
		logger: logger,
	}
}

// Complete runs a non-streaming chat completion.
func (c *client) Complete(ctx context.Context, prompt *entity.Prompt) (*entity.Completion, error) {
	name, api, req, err := c.prepare(prompt)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := api.CreateChatCompletion(ctx, *req)
	if err != nil {
		c.logger.Error("ai completion failed", "provider", name, "model", req.Model, "error", err)
		return nil, domain.NewUpstreamError(name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewUpstreamError(name, errors.New("empty completion response"))
	}

	return &entity.Completion{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// StreamCompletion runs a streaming chat completion. The returned channel is
// closed after a terminal chunk (IsEnd or Error) is delivered.
func (c *client) StreamCompletion(ctx context.Context, prompt *entity.Prompt) (<-chan entity.StreamChunk, error) {
	name, api, req, err := c.prepare(prompt)
	if err != nil {
		return nil, err
	}
	req.Stream = true

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)

	stream, err := api.CreateChatCompletionStream(ctx, *req)
	if err != nil {
		cancel()
		c.logger.Error("ai stream open failed", "provider", name, "model", req.Model, "error", err)
		return nil, domain.NewUpstreamError(name, err)
	}

	out := make(chan entity.StreamChunk, 64)
	go func() {
		defer cancel()
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				select {
				case out <- entity.StreamChunk{IsEnd: true}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				c.logger.Error("ai stream failed", "provider", name, "error", err)
				select {
				case out <- entity.StreamChunk{Error: err.Error()}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if text := resp.Choices[0].Delta.Content; text != "" {
				select {
				case out <- entity.StreamChunk{Text: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// prepare resolves the provider and assembles the wire request.
func (c *client) prepare(prompt *entity.Prompt) (string, *openai.Client, *openai.ChatCompletionRequest, error) {
	name := prompt.Provider
	if name == "" {
		name = c.cfg.DefaultProvider
	}

	provider, ok := c.cfg.Providers[name]
	if !ok {
		return "", nil, nil, domain.NewInvalidInputError("unknown ai provider: " + name)
	}

	apiKey := prompt.APIKey
	if apiKey == "" {
		apiKey = provider.APIKey
	}
	if apiKey == "" {
		return "", nil, nil, domain.NewInvalidInputError("missing api key for provider " + name)
	}

	apiCfg := openai.DefaultConfig(apiKey)
	if provider.BaseURL != "" {
		apiCfg.BaseURL = provider.BaseURL
	}

	model := prompt.Model
	if model == "" {
		model = provider.DefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Messages)+1)
	if prompt.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.SystemPrompt,
		})
	}
	for _, m := range prompt.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	req := &openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	return name, openai.NewClientWithConfig(apiCfg), req, nil
}
