package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/UniNest/NestGuide/internal/models"
	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   *openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGenerateReturnsContent(t *testing.T) {
	mock := &mockChatService{resp: completionWith("  Got it, thanks!  ")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	out, err := c.Generate(context.Background(), "validate the name", nil, "Ana Lee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Got it, thanks!" {
		t.Errorf("expected trimmed content, got %q", out)
	}
	if len(mock.params.Messages) != 2 {
		t.Errorf("expected system + user message, got %d messages", len(mock.params.Messages))
	}
}

func TestGenerateIncludesHistory(t *testing.T) {
	mock := &mockChatService{resp: completionWith("ok")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "Ana Lee"},
		{Role: models.RoleBot, Content: "Got it. Where do you live?"},
	}
	if _, err := c.Generate(context.Background(), "sys", history, "Chicago, USA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// system + 2 history + latest input
	if len(mock.params.Messages) != 4 {
		t.Errorf("expected 4 messages, got %d", len(mock.params.Messages))
	}
}

func TestGenerateTransportError(t *testing.T) {
	mock := &mockChatService{err: errors.New("connection refused")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := c.Generate(context.Background(), "sys", nil, "input")
	if err == nil {
		t.Fatal("expected error for transport failure, got nil")
	}
	if !strings.Contains(err.Error(), "completion request failed") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestGenerateNoChoicesIsFailure(t *testing.T) {
	mock := &mockChatService{resp: &openai.ChatCompletion{}}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := c.Generate(context.Background(), "sys", nil, "input")
	if err == nil {
		t.Fatal("expected error for response with no choices, got nil")
	}
}

func TestGenerateEmptyContentIsFailure(t *testing.T) {
	mock := &mockChatService{resp: completionWith("   ")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := c.Generate(context.Background(), "sys", nil, "input")
	if err == nil {
		t.Fatal("expected error for empty message content, got nil")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is available")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("unexpected error with explicit key: %v", err)
	}
}
