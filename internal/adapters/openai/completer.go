package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/domain"
)

var ErrEmptyCompletion = errors.New("openai: empty completion")

// Completer answers with a single chat completion per call.
type Completer struct {
	client      *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// New builds a completer; baseURL overrides the API endpoint when set.
func New(apiKey, baseURL, model string, maxTokens int, temperature float32) (*Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Completer{
		client:      goopenai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     45 * time.Second,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, system string, history []domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]goopenai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		role := goopenai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		case domain.RoleSystem:
			// only our own system prompt goes in the system slot
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	observability.ObserveExternal("openai", "chat_completions", statusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
