package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/retrogate/retrogate/internal/consts"
	"github.com/retrogate/retrogate/internal/framer"
	"github.com/retrogate/retrogate/internal/history"
	"github.com/retrogate/retrogate/internal/llm"
	"github.com/retrogate/retrogate/internal/logger"
	"github.com/retrogate/retrogate/internal/sanitize"
	"github.com/retrogate/retrogate/internal/spinner"
)

// Session owns the complete state of one client connection: the input
// framer, the bounded conversation history and the per-session completion
// client. Sessions share nothing with each other.
type Session struct {
	id          string
	conn        io.ReadWriter
	client      llm.Client
	history     *history.History
	framer      *framer.Framer
	platform    string // canonical name, for /status
	displayName string // human-facing name, for banners and errors

	// spinnerInterval is overridable so tests do not animate in real time.
	spinnerInterval time.Duration
}

func newSession(id string, conn io.ReadWriter, client llm.Client, platform, displayName string, maxTurns int) *Session {
	return &Session{
		id:              id,
		conn:            conn,
		client:          client,
		history:         history.New(maxTurns),
		framer:          framer.New(),
		platform:        platform,
		displayName:     displayName,
		spinnerInterval: consts.SpinnerInterval,
	}
}

// run drives the session until the connection drops. Every fault is
// contained here: it either becomes a client-visible message or a server
// log line, and only an unusable socket ends the loop.
func (s *Session) run(ctx context.Context) {
	if err := s.write(welcomeBanner(s.displayName, s.client.ModelName())); err != nil {
		logger.Debug("session %s: failed to send welcome: %v", s.id, err)
		return
	}

	buf := make([]byte, consts.RecvBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				logger.Debug("session %s: read error: %v", s.id, err)
			}
			return
		}

		s.framer.Feed(buf[:n])

		for {
			prompt, ok := s.framer.Next()
			if !ok {
				break
			}
			if err := s.handlePrompt(ctx, prompt); err != nil {
				logger.Debug("session %s: write error: %v", s.id, err)
				return
			}
		}
	}
}

// handlePrompt routes one extracted prompt. The returned error is always a
// connection write failure; backend errors never escape the exchange.
func (s *Session) handlePrompt(ctx context.Context, prompt string) error {
	switch {
	case prompt == "":
		return s.write(emptyPromptBanner)
	case strings.HasPrefix(prompt, "/"):
		return s.dispatchCommand(prompt)
	default:
		return s.exchange(ctx, prompt)
	}
}

// exchange runs one prompt/response cycle: busy indicator while waiting,
// then sanitized fragments streamed to the client, then history update and
// the next prompt banner.
func (s *Session) exchange(ctx context.Context, prompt string) error {
	logger.Info("session %s: prompt received (%d bytes)", s.id, len(prompt))

	if err := s.write(thinkingPrefix); err != nil {
		return err
	}

	sp := spinner.NewWithInterval(s.conn, s.spinnerInterval)
	sp.Start()

	var (
		response      strings.Builder
		writeErr      error
		firstFragment = true
	)

	streamErr := s.client.Stream(ctx, prompt, s.historyMessages(), func(chunk string) error {
		if firstFragment {
			// Hard barrier: the spinner is fully torn down before the first
			// content byte goes out.
			sp.Stop()
			firstFragment = false
			if err := s.write("\r\n"); err != nil {
				writeErr = err
				return err
			}
		}

		response.WriteString(chunk)
		if err := s.write(sanitize.Fragment(chunk)); err != nil {
			writeErr = err
			return err
		}
		return nil
	})

	// Covers the pre-stream failure and zero-fragment cases; a no-op when
	// the first fragment already stopped it.
	sp.Stop()

	if writeErr != nil {
		return writeErr
	}

	if streamErr != nil {
		if firstFragment {
			// Nothing reached the client yet, so the failure is reported
			// inline and the session carries on.
			if err := s.write(fmt.Sprintf("\r\n%s API error: %v\r\n", s.displayName, streamErr)); err != nil {
				return err
			}
		} else {
			// Partial content already streamed. The client keeps what it
			// has; the error stays server-side.
			logger.Warn("session %s: %s stream failed mid-response: %v", s.id, s.platform, streamErr)
		}
	}

	s.history.Add(history.RoleUser, prompt)
	if response.Len() > 0 {
		s.history.Add(history.RoleAssistant, response.String())
	}

	return s.write(responseSeparator + nextPromptBanner)
}

// historyMessages snapshots the conversation for stateless backends.
func (s *Session) historyMessages() []llm.Message {
	turns := s.history.Turns()
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Text})
	}
	return msgs
}

func (s *Session) write(str string) error {
	_, err := io.WriteString(s.conn, str)
	return err
}
