package gateway

import "fmt"

// Wire protocol strings. The gateway speaks plain CRLF text to whatever the
// client is: a real telnet program, netcat, or a vintage terminal emulator.
const (
	promptMarker = "> "

	thinkingPrefix = "\r\nThinking... "

	responseSeparator = "\r\n-----\r\n"

	nextPromptBanner = "Type your next prompt and press Enter twice:\r\n\r\n" + promptMarker

	// Sent when the client submits an empty prompt (enter-enter, no text).
	emptyPromptBanner = "\r\nType your prompt and press Enter twice:\r\n\r\n" + promptMarker
)

// welcomeBanner greets a new connection, naming the active platform and
// model so the user knows who they are talking to.
func welcomeBanner(displayName, model string) string {
	return fmt.Sprintf("Retrogate %s Gateway (%s)\r\nType your prompt and press Enter twice to send:\r\n\r\n%s",
		displayName, model, promptMarker)
}
