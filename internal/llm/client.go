package llm

import "context"

// emptyFragment reports whether a streamed delta carries no bytes at all.
// Whitespace is content: paragraph breaks routinely arrive as their own
// "\n\n" delta and must reach the client.
func emptyFragment(text string) bool {
	return text == ""
}

// Message represents a conversation turn passed to stateless backends.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Client streams completions for a single gateway session. Implementations
// are not safe for concurrent use; each session owns its own Client, which
// also keeps the active model identifier session-local.
type Client interface {
	// Stream sends the prompt and invokes callback for every non-empty text
	// fragment as it arrives. Stateless backends replay history on each
	// call; stateful backends ignore it and rely on their own handle.
	// A backend failure mid-stream is returned as an error, never delivered
	// as a fragment. A callback error aborts the stream and is returned.
	Stream(ctx context.Context, prompt string, history []Message, callback func(chunk string) error) error

	// ModelName returns the active model identifier.
	ModelName() string

	// SetModel switches the active model identifier.
	SetModel(name string)

	// Stateful reports whether the backend holds conversation state in its
	// own chat handle. Switching models on a stateful client discards that
	// handle, so the caller must reset its conversation history too.
	Stateful() bool
}
