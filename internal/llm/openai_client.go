package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/retrogate/retrogate/internal/consts"
)

// OpenAIClient implements Client using the official OpenAI SDK.
//
// This is the stateless-per-call variant: every request replays the full
// turn history plus the new user turn, so switching models keeps the
// conversation intact.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient constructs a client that talks to the OpenAI chat
// completions API.
func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai client requires an API key")
	}

	model := strings.TrimSpace(modelName)
	if model == "" {
		model = consts.DefaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

func (c *OpenAIClient) SetModel(name string) {
	if name = strings.TrimSpace(name); name != "" {
		c.model = name
	}
}

func (c *OpenAIClient) Stateful() bool {
	return false
}

func (c *OpenAIClient) Stream(ctx context.Context, prompt string, history []Message, callback func(chunk string) error) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: convertMessagesToOpenAI(history, prompt),
	})
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			text := choice.Delta.Content
			if emptyFragment(text) {
				continue
			}
			if err := callback(text); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai stream failed: %w", err)
	}

	return nil
}

func convertMessagesToOpenAI(history []Message, prompt string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		switch strings.ToLower(msg.Role) {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return append(messages, openai.UserMessage(prompt))
}
