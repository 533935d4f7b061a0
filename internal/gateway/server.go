// Package gateway implements the text-terminal gateway: a TCP listener that
// runs one independent prompt/response session per connection.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/retrogate/retrogate/internal/config"
	"github.com/retrogate/retrogate/internal/llm"
	"github.com/retrogate/retrogate/internal/logger"
)

// ClientFactory mints one completion client per session and describes the
// platform fixed at startup. Satisfied by provider.Manager.
type ClientFactory interface {
	NewClient(ctx context.Context) (llm.Client, error)
	Platform() string
	DisplayName() string
}

// Server accepts raw text connections and spawns a session goroutine per
// connection. Sessions share only the read-only factory.
type Server struct {
	cfg     *config.Config
	factory ClientFactory

	listener net.Listener

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	connMu sync.Mutex
	conns  map[string]net.Conn

	connIDCounter int
	connIDMu      sync.Mutex
}

// NewServer creates a gateway server.
func NewServer(cfg *config.Config, factory ClientFactory) *Server {
	return &Server{
		cfg:      cfg,
		factory:  factory,
		stopChan: make(chan struct{}),
		conns:    make(map[string]net.Conn),
	}
}

// Start begins listening and accepting connections in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	logger.Info("gateway listening on %s (platform: %s, model: %s)",
		listener.Addr(), s.factory.Platform(), s.cfg.Model)

	return nil
}

// Addr returns the bound listen address, useful when the configured port
// was 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for the accept loop to exit. Active
// sessions notice through their failing socket reads.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		logger.Info("stopping gateway...")

		close(s.stopChan)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Error("error closing listener: %v", err)
			}
		}

		// Closing the connections unblocks every session's pending read so
		// the wait below is bounded.
		s.connMu.Lock()
		for _, conn := range s.conns {
			_ = conn.Close()
		}
		s.connMu.Unlock()

		s.wg.Wait()

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		logger.Info("gateway stopped")
	})

	return nil
}

// acceptLoop accepts incoming connections until stopped.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			logger.Info("accept loop stopped via context cancellation")
			return
		case <-s.stopChan:
			return
		default:
		}

		// Deadline so the loop can notice stop signals periodically.
		if tcpListener, ok := s.listener.(*net.TCPListener); ok {
			_ = tcpListener.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Info("listener closed, exiting accept loop")
				return
			}
			logger.Error("error accepting connection: %v", err)
			continue
		}

		connID := s.generateConnectionID()
		logger.Info("session %s: connection accepted from %s", connID, conn.RemoteAddr())

		s.trackConn(connID, conn)
		s.wg.Add(1)
		go s.handleConn(ctx, connID, conn)
	}
}

// handleConn runs one session for its whole lifetime.
func (s *Server) handleConn(ctx context.Context, connID string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.untrackConn(connID)
		logger.Info("session %s: connection closed", connID)
	}()

	client, err := s.factory.NewClient(ctx)
	if err != nil {
		logger.Error("session %s: failed to create completion client: %v", connID, err)
		_, _ = fmt.Fprintf(conn, "Backend unavailable: %v\r\n", err)
		return
	}

	sess := newSession(connID, conn, client, s.factory.Platform(), s.factory.DisplayName(), s.cfg.MaxTurns)
	sess.run(ctx)
}

func (s *Server) trackConn(connID string, conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conns[connID] = conn
}

func (s *Server) untrackConn(connID string) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, connID)
}

func (s *Server) generateConnectionID() string {
	s.connIDMu.Lock()
	defer s.connIDMu.Unlock()

	s.connIDCounter++
	return fmt.Sprintf("conn_%d", s.connIDCounter)
}
