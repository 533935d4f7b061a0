package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/retrogate/retrogate/internal/consts"
	genai "google.golang.org/genai"
)

// GoogleClient implements Client using the official Google GenAI SDK.
//
// This is the stateful variant: the conversation lives in a provider-side
// chat handle created on first use, so Stream ignores the caller's history.
// Switching models discards the handle; the old one cannot continue with a
// new model.
type GoogleClient struct {
	client *genai.Client
	model  string
	chat   *genai.Chat
}

// NewGoogleAIClient creates a Google GenAI client for the provided model.
func NewGoogleAIClient(ctx context.Context, apiKey, modelName string) (*GoogleClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("google client requires an API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google GenAI client: %w", err)
	}

	return &GoogleClient{
		client: client,
		model:  normalizeGoogleModelName(modelName),
	}, nil
}

func (c *GoogleClient) ModelName() string {
	return c.model
}

// SetModel switches the model and drops the chat handle. The next Stream
// call starts a fresh conversation.
func (c *GoogleClient) SetModel(name string) {
	c.model = normalizeGoogleModelName(name)
	c.chat = nil
}

func (c *GoogleClient) Stateful() bool {
	return true
}

func (c *GoogleClient) Stream(ctx context.Context, prompt string, _ []Message, callback func(chunk string) error) error {
	if c.chat == nil {
		chat, err := c.client.Chats.Create(ctx, c.model, nil, nil)
		if err != nil {
			return fmt.Errorf("google chat create failed: %w", err)
		}
		c.chat = chat
	}

	for result, err := range c.chat.SendMessageStream(ctx, genai.Part{Text: prompt}) {
		if err != nil {
			return fmt.Errorf("google stream failed: %w", err)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			continue
		}
		chunk := collectTextFromContent(result.Candidates[0].Content)
		if emptyFragment(chunk) {
			continue
		}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return nil
}

func collectTextFromContent(content *genai.Content) string {
	if content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func normalizeGoogleModelName(modelName string) string {
	trimmed := strings.TrimSpace(modelName)
	if trimmed == "" {
		return consts.DefaultGoogleModel
	}

	lowered := strings.ToLower(trimmed)
	if strings.HasPrefix(lowered, "models/") || strings.HasPrefix(lowered, "publishers/") {
		return trimmed
	}

	return "models/" + trimmed
}
