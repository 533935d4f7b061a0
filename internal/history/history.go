// Package history keeps the bounded conversation log for one session.
package history

import "sync"

// Role tags for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in the conversation.
type Turn struct {
	Role string
	Text string
}

// History is an ordered, bounded sequence of turns. When the bound is
// exceeded the oldest turns are dropped first. Each session owns exactly one
// History and never shares it.
type History struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

// New creates a History bounded at maxTurns.
func New(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 1
	}
	return &History{maxTurns: maxTurns}
}

// Add appends a turn and trims the oldest entries beyond the bound.
func (h *History) Add(role, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Turn{Role: role, Text: text})
	if excess := len(h.turns) - h.maxTurns; excess > 0 {
		h.turns = append(h.turns[:0:0], h.turns[excess:]...)
	}
}

// Turns returns a snapshot copy of the current turns in order.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the current number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Reset discards all turns. Used when a stateful backend handle is replaced
// and its provider-side history can no longer be continued.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
