package gateway

import (
	"fmt"
	"strings"
)

const helpText = "Commands:\r\n" +
	"  /model <name>  switch the active model\r\n" +
	"  /status        show platform, model and turn count\r\n" +
	"  /help          show this text"

// dispatchCommand handles slash-prefixed control directives. Commands are
// synchronous and local; none of them contact the backend.
func (s *Session) dispatchCommand(input string) error {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	args := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch name {
	case "/model":
		return s.cmdModel(args)
	case "/help":
		return s.commandReply(helpText)
	case "/status":
		return s.commandReply(fmt.Sprintf("Platform: %s\r\nModel: %s\r\nTurns: %d",
			s.platform, s.client.ModelName(), s.history.Len()))
	default:
		return s.commandReply(fmt.Sprintf("Unknown command %s. Try /help.", name))
	}
}

func (s *Session) cmdModel(arg string) error {
	if arg == "" {
		return s.commandReply("Usage: /model <name>")
	}

	s.client.SetModel(arg)

	if s.client.Stateful() {
		// The provider-side chat handle was discarded with the old model;
		// the local history can no longer be continued either.
		s.history.Reset()
		return s.commandReply(fmt.Sprintf(
			"Model set to %s. Conversation history cleared: the previous chat cannot continue with a new model.",
			s.client.ModelName()))
	}

	return s.commandReply(fmt.Sprintf("Model set to %s.", s.client.ModelName()))
}

// commandReply writes a command response followed by a fresh prompt marker.
func (s *Session) commandReply(text string) error {
	return s.write("\r\n" + text + "\r\n\r\n" + promptMarker)
}
