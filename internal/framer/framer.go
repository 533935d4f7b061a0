// Package framer extracts discrete prompts from a continuous client byte
// stream. A prompt is terminated by a blank line: double CRLF or double LF.
package framer

import "strings"

const (
	crlfTerminator = "\r\n\r\n"
	lfTerminator   = "\n\n"

	// promptMarker is echoed back by some line-mode clients along with the
	// typed text, so it is stripped from the front of extracted prompts.
	promptMarker = "> "
)

// Framer accumulates connection bytes and yields complete prompts. One
// Framer belongs to exactly one session; it is not safe for concurrent use.
//
// The accumulation buffer has no upper bound: a client that never sends a
// terminator grows it indefinitely. Known limitation.
type Framer struct {
	buf string
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Feed appends received bytes to the accumulation buffer. Input is decoded
// tolerantly: bytes outside the 7-bit ASCII range (telnet IAC negotiation,
// stray high bytes from vintage encodings) are dropped rather than failing.
func (f *Framer) Feed(data []byte) {
	if len(data) == 0 {
		return
	}

	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if b < 0x80 {
			sb.WriteByte(b)
		}
	}
	f.buf += sb.String()
}

// Next extracts the next complete prompt from the buffer. It returns
// ok=false when no terminator has arrived yet. An empty prompt with ok=true
// means the client sent a blank submission (enter-enter with no text); that
// is a distinct outcome from "no signal yet".
//
// A CRLF-CRLF terminator always wins over LF-LF, even when the LF-LF occurs
// earlier in the buffer. This reproduces the original gateway's check order
// and is asserted by tests; see DESIGN.md before changing it.
func (f *Framer) Next() (string, bool) {
	end := strings.Index(f.buf, crlfTerminator)
	termLen := len(crlfTerminator)

	if end == -1 {
		end = strings.Index(f.buf, lfTerminator)
		termLen = len(lfTerminator)
	}

	if end == -1 {
		return "", false
	}

	prompt := strings.TrimSpace(f.buf[:end])
	prompt = strings.TrimPrefix(prompt, promptMarker)

	f.buf = f.buf[end+termLen:]

	return prompt, true
}

// Pending returns the bytes accumulated after the last extracted prompt.
func (f *Framer) Pending() string {
	return f.buf
}
