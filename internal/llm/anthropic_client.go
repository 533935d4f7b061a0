package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/retrogate/retrogate/internal/consts"
)

// AnthropicClient implements Client using the official Anthropic SDK.
//
// Like OpenAI this is a history-replay variant, but the stream arrives as
// tagged events: only content-block deltas carry text, and the terminal
// message-stop event is ignored for content purposes.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates an Anthropic client backed by the official SDK.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic client requires an API key")
	}

	model := strings.TrimSpace(modelName)
	if model == "" {
		model = consts.DefaultAnthropicModel
	}

	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (c *AnthropicClient) ModelName() string {
	return c.model
}

func (c *AnthropicClient) SetModel(name string) {
	if name = strings.TrimSpace(name); name != "" {
		c.model = name
	}
}

func (c *AnthropicClient) Stateful() bool {
	return false
}

func (c *AnthropicClient) Stream(ctx context.Context, prompt string, history []Message, callback func(chunk string) error) error {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(consts.DefaultMaxTokens),
		Messages:  convertMessagesToAnthropic(history, prompt),
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if stream == nil {
		return fmt.Errorf("anthropic stream failed: no stream returned")
	}
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()

		// Only content-block deltas carry text; everything else, including
		// the message-stop event, is skipped.
		deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}

		textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
		if !ok {
			continue
		}

		text := textDelta.Text
		if emptyFragment(text) {
			continue
		}

		if err := callback(text); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream failed: %w", err)
	}

	return nil
}

func convertMessagesToAnthropic(history []Message, prompt string) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if strings.ToLower(msg.Role) == "assistant" {
			role = anthropic.MessageParamRoleAssistant
		}

		messages = append(messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
		})
	}

	return append(messages, anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleUser,
		Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
	})
}
