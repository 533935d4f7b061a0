package gateway

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/retrogate/retrogate/internal/config"
	"github.com/retrogate/retrogate/internal/llm"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct{}

func (fakeFactory) NewClient(context.Context) (llm.Client, error) {
	return &fakeClient{model: "test-model", fragments: []string{"echo response"}}, nil
}

func (fakeFactory) Platform() string    { return "openai" }
func (fakeFactory) DisplayName() string { return "OpenAI" }

func startTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{Host: "127.0.0.1", Port: 0, MaxTurns: 50}
	srv := NewServer(cfg, fakeFactory{})
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })

	return srv
}

// readUntilMarker consumes bytes until the prompt marker appears.
func readUntilMarker(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		require.NoError(t, err)
		sb.WriteByte(b)
		if strings.HasSuffix(sb.String(), "> ") {
			return sb.String()
		}
	}
}

func TestServerSessionRoundTrip(t *testing.T) {
	srv := startTestServer(t)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	r := bufio.NewReader(conn)

	welcome := readUntilMarker(t, r)
	require.Contains(t, welcome, "Retrogate OpenAI Gateway (test-model)")

	_, err = conn.Write([]byte("/status\r\n\r\n"))
	require.NoError(t, err)
	status := readUntilMarker(t, r)
	require.Contains(t, status, "Platform: openai")
	require.Contains(t, status, "Model: test-model")
	require.Contains(t, status, "Turns: 0")

	_, err = conn.Write([]byte("hello\r\n\r\n"))
	require.NoError(t, err)
	reply := readUntilMarker(t, r)
	require.Contains(t, reply, "Thinking... ")
	require.Contains(t, reply, "echo response")
	require.Contains(t, reply, "-----")
}

func TestServerIsolatesSessions(t *testing.T) {
	srv := startTestServer(t)

	connA, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer connA.Close()
	connB, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer connB.Close()

	require.NoError(t, connA.SetDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, connB.SetDeadline(time.Now().Add(5*time.Second)))
	ra := bufio.NewReader(connA)
	rb := bufio.NewReader(connB)
	readUntilMarker(t, ra)
	readUntilMarker(t, rb)

	// A full exchange on one session must not leak turns into the other.
	_, err = connA.Write([]byte("hello\r\n\r\n"))
	require.NoError(t, err)
	readUntilMarker(t, ra)

	_, err = connB.Write([]byte("/status\r\n\r\n"))
	require.NoError(t, err)
	status := readUntilMarker(t, rb)
	require.Contains(t, status, "Turns: 0")
}

func TestServerStopClosesActiveConnections(t *testing.T) {
	cfg := &config.Config{Host: "127.0.0.1", Port: 0, MaxTurns: 50}
	srv := NewServer(cfg, fakeFactory{})
	require.NoError(t, srv.Start(context.Background()))

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	readUntilMarker(t, bufio.NewReader(conn))

	done := make(chan struct{})
	go func() {
		_ = srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a session was active")
	}
}

func TestServerRejectsDoubleStart(t *testing.T) {
	srv := startTestServer(t)
	require.Error(t, srv.Start(context.Background()))
}
