package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/retrogate/retrogate/internal/history"
	"github.com/retrogate/retrogate/internal/llm"
	"github.com/stretchr/testify/require"
)

// fakeClient scripts a backend: a sequence of fragments, then an optional
// terminal error.
type fakeClient struct {
	model    string
	stateful bool

	fragments []string
	err       error
	delay     time.Duration // pause before the first fragment

	streamCalls int
	lastHistory []llm.Message
}

func (f *fakeClient) Stream(_ context.Context, _ string, hist []llm.Message, callback func(chunk string) error) error {
	f.streamCalls++
	f.lastHistory = hist

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	for _, fr := range f.fragments {
		if err := callback(fr); err != nil {
			return err
		}
	}
	return f.err
}

func (f *fakeClient) ModelName() string    { return f.model }
func (f *fakeClient) SetModel(name string) { f.model = name }
func (f *fakeClient) Stateful() bool       { return f.stateful }

// fakeConn records every write separately so tests can reason about write
// ordering on the wire.
type fakeConn struct {
	io.Reader
	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{Reader: strings.NewReader("")}
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var buf bytes.Buffer
	for _, w := range c.writes {
		buf.Write(w)
	}
	return buf.String()
}

func (c *fakeConn) writeLog() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	for i, w := range c.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

func newTestSession(conn io.ReadWriter, client llm.Client) *Session {
	s := newSession("conn_test", conn, client, "openai", "OpenAI", 50)
	s.spinnerInterval = time.Millisecond
	return s
}

func TestExchangeStreamsSanitizedContent(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "test-model", fragments: []string{"**hello** world", "\nsecond line"}}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	out := conn.output()
	require.Contains(t, out, "\r\nThinking... ")
	require.Contains(t, out, "hello world")
	require.Contains(t, out, "\r\nsecond line")
	require.Contains(t, out, responseSeparator)
	require.True(t, strings.HasSuffix(out, nextPromptBanner))

	turns := s.history.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, history.RoleUser, turns[0].Role)
	require.Equal(t, "hi", turns[0].Text)
	require.Equal(t, history.RoleAssistant, turns[1].Role)
	require.Equal(t, "**hello** world\nsecond line", turns[1].Text)
}

// A paragraph break arriving as its own whitespace-only fragment is content:
// it must reach the wire (CRLF-normalized) and survive in the recorded
// assistant turn instead of the paragraphs being joined.
func TestExchangeKeepsParagraphBreakFragments(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m", fragments: []string{"Para one.", "\n\n", "Para two."}}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	require.Contains(t, conn.output(), "Para one.\r\n\r\nPara two.")

	turns := s.history.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, "Para one.\n\nPara two.", turns[1].Text)
}

// The spinner must be fully torn down before the first content byte: its
// clearing pair appears before the content write, and no frame pair appears
// after it.
func TestNoSpinnerBytesAfterContent(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m", fragments: []string{"content starts here"}, delay: 20 * time.Millisecond}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	writes := conn.writeLog()

	contentIdx := -1
	clearIdx := -1
	for i, w := range writes {
		if string(w) == "content starts here" {
			contentIdx = i
		}
		if string(w) == " \b" && clearIdx == -1 {
			clearIdx = i
		}
	}

	require.GreaterOrEqual(t, clearIdx, 0, "spinner clear pair never written")
	require.GreaterOrEqual(t, contentIdx, 0, "content never written")
	require.Less(t, clearIdx, contentIdx, "spinner cleared after content started")

	for _, w := range writes[contentIdx+1:] {
		require.False(t, len(w) == 2 && w[1] == '\b',
			"spinner byte %q written after content", w)
	}
}

func TestExchangeBackendErrorBeforeFragments(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m", err: errors.New("quota exceeded")}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	out := conn.output()
	require.Contains(t, out, "OpenAI API error: quota exceeded")
	require.Contains(t, out, responseSeparator)

	// User turn recorded, assistant turn omitted.
	turns := s.history.Turns()
	require.Len(t, turns, 1)
	require.Equal(t, history.RoleUser, turns[0].Role)
}

func TestExchangeBackendErrorMidStream(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m", fragments: []string{"partial answer"}, err: errors.New("upstream reset")}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	out := conn.output()
	require.Contains(t, out, "partial answer")
	require.NotContains(t, out, "upstream reset")
	require.Contains(t, out, responseSeparator)

	// Partial response still becomes the assistant turn.
	turns := s.history.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, "partial answer", turns[1].Text)
}

func TestExchangeZeroFragments(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m"}
	s := newTestSession(conn, client)

	require.NoError(t, s.exchange(context.Background(), "hi"))

	out := conn.output()
	require.Contains(t, out, " \b", "spinner must still be cleared")
	require.Contains(t, out, responseSeparator)

	turns := s.history.Turns()
	require.Len(t, turns, 1)
	require.Equal(t, history.RoleUser, turns[0].Role)
}

func TestExchangePassesHistoryToBackend(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m", fragments: []string{"answer two"}}
	s := newTestSession(conn, client)

	s.history.Add(history.RoleUser, "question one")
	s.history.Add(history.RoleAssistant, "answer one")

	require.NoError(t, s.exchange(context.Background(), "question two"))

	require.Equal(t, []llm.Message{
		{Role: "user", Content: "question one"},
		{Role: "assistant", Content: "answer one"},
	}, client.lastHistory)
}

func TestHandlePromptEmptyReprompts(t *testing.T) {
	conn := newFakeConn()
	client := &fakeClient{model: "m"}
	s := newTestSession(conn, client)

	require.NoError(t, s.handlePrompt(context.Background(), ""))

	require.Equal(t, emptyPromptBanner, conn.output())
	require.Zero(t, client.streamCalls, "empty prompt must not contact the backend")
	require.Zero(t, s.history.Len())
}

func TestRunReadsFramesAndExits(t *testing.T) {
	client := &fakeClient{model: "m", fragments: []string{"pong"}}
	conn := &fakeConn{Reader: strings.NewReader("ping\r\n\r\n")}
	s := newTestSession(conn, client)

	// run returns once the reader is exhausted (io.EOF).
	s.run(context.Background())

	out := conn.output()
	require.Contains(t, out, "Retrogate OpenAI Gateway (m)")
	require.Contains(t, out, "pong")
	require.Equal(t, 1, client.streamCalls)
}
