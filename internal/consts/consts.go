package consts

import "time"

// Network defaults
const (
	// DefaultHost is the address the gateway listens on by default
	DefaultHost = "0.0.0.0"
	// DefaultPort is the default listening port (classic telnet-adjacent)
	DefaultPort = 2323
	// RecvBufferSize is the per-read buffer size for client connections
	RecvBufferSize = 4096
)

// Conversation limits
const (
	// DefaultMaxTurns bounds the per-session conversation history
	DefaultMaxTurns = 50
)

// Busy indicator
const (
	// SpinnerInterval is the delay between spinner animation frames
	SpinnerInterval = 100 * time.Millisecond
)

// LLM defaults
const (
	// DefaultMaxTokens is the default maximum tokens for streamed completions
	DefaultMaxTokens = 1024
)

// Per-platform default model identifiers, used when no model is configured.
const (
	DefaultGoogleModel    = "models/gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
)
