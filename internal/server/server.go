// Package server implements the daemon side of the local RPC transport:
// a Unix socket (named pipe on Windows) with a loopback TCP fallback,
// carrying length-prefixed JSON frames. The CLI is the only client.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/pkg/logger"
)

// Server accepts CLI connections and dispatches requests to registered
// handlers. One goroutine per connection; handlers run inline.
type Server struct {
	log      logger.Logger
	handler  map[common.Method]HandlerFunc
	port     int
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a server. port is the TCP fallback port used when
// the socket transport is unavailable.
func NewServer(log logger.Logger, port int) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Server{
		log:     log,
		handler: make(map[common.Method]HandlerFunc),
		port:    port,
	}
}

// RegisterHandler associates a handler with a method. Must be called
// before Start.
func (s *Server) RegisterHandler(method common.Method, handler HandlerFunc) {
	s.handler[method] = handler
}

// Start listens and blocks until ctx is cancelled. Each accepted
// connection is served on its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	l, err := s.createListener()
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.log.Info("server: listening on %s", l.Addr())

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.log.Error("server: accept: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

// Shutdown closes the listener and removes the socket file.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("server: closing listener: %v", err)
		}
		s.listener = nil
	}
	if err := cleanupSocket(); err != nil {
		s.log.Error("server: removing socket file: %v", err)
	}
	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	sconn := NewSyncConn(conn)
	defer conn.Close()
	for {
		buf, err := sconn.Read()
		if err != nil {
			if err != io.EOF {
				s.log.Error("server: read: %v", err)
			}
			return
		}
		if err := s.handlerWrapper(sconn, buf); err != nil {
			s.log.Error("server: handle: %v", err)
			return
		}
	}
}

func (s *Server) handlerWrapper(sconn *SyncConn, b []byte) error {
	req, err := ParseRequest(b)
	if err != nil {
		return fmt.Errorf("parsing request: %w", err)
	}
	rHandler, ok := s.handler[req.Method]
	if !ok {
		if err := sconn.Write(CreateError("unknown method: " + string(req.Method))); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
		return nil
	}
	method, msg, err := rHandler(sconn, req.Message)
	if err != nil {
		if err := sconn.Write(InitError(err)); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
		return nil
	}
	if err := sconn.Write(MakeResult(method, msg)); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
