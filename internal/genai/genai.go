// Package genai wraps the OpenAI chat completion API used to validate
// onboarding answers and to generate assistant replies.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/UniNest/NestGuide/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientInterface is the completion contract the flow package depends on.
// Generate sends a system instruction, prior accepted turns, and the latest
// user input, and returns the service's reply text or a definite failure.
type ClientInterface interface {
	Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage, userInput string) (string, error)
}

// chatService defines the minimal interface for chat completions so tests can
// inject a mock in place of the real OpenAI service.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// completionService adapts the OpenAI SDK service to chatService.
type completionService struct {
	svc openai.ChatCompletionService
}

func (s completionService) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return s.svc.New(ctx, params)
}

// Opts holds configuration options for the completion client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the completion client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the completion model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat  chatService
	model openai.ChatModel
}

// NewClient initializes a completion client, falling back to the
// OPENAI_API_KEY environment variable when no key option is provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: completion client created", "model", cfg.Model)
	return &Client{chat: completionService{svc: cli.Chat.Completions}, model: cfg.Model}, nil
}

// Generate sends the instruction, conversation context, and latest input to
// the completion service and returns its reply text.
//
// A transport error, a response with no choices, or a choice with empty
// content are all reported as errors: the caller must never interpret a
// malformed reply as a validation verdict.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage, userInput string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case models.RoleBot:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userInput))

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("genai.Generate: completion request failed", "error", err, "historyLen", len(history))
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		slog.Error("genai.Generate: completion response contained no choices")
		return "", fmt.Errorf("completion response contained no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		slog.Error("genai.Generate: completion response contained no message content")
		return "", fmt.Errorf("completion response contained no message content")
	}
	slog.Debug("genai.Generate: completion succeeded", "responseLength", len(content))
	return content, nil
}
