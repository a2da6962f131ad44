// Package tcp exposes the station over the JSON-over-TCP wire protocol: one
// request object and one response object per exchange on a persistent
// connection.
package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const readChunkSize = 4096

type Server struct {
	addr        string
	router      *Router
	readTimeout time.Duration
	log         *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

func NewServer(addr string, router *Router, readTimeout time.Duration, log *zap.Logger) *Server {
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &Server{
		addr:        addr,
		router:      router,
		readTimeout: readTimeout,
		log:         log,
		conns:       make(map[net.Conn]struct{}),
	}
}

// Start accepts clients until the context is cancelled. One goroutine per
// connection.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info("TCP server listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("Accept failed", zap.Error(err))
			continue
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Addr returns the bound listener address, empty until Start has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and drains accepted connections.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.log.Info("Client connected", zap.String("remote", remote))

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.log.Info("Client disconnected", zap.String("remote", remote))
	}()

	for {
		req, err := s.readRequest(conn)
		if err != nil {
			return
		}

		resp := s.router.Handle(ctx, req)

		data, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("Failed to encode response", zap.Error(err))
			return
		}
		if _, err := conn.Write(data); err != nil {
			s.log.Warn("Failed to write response", zap.String("remote", remote), zap.Error(err))
			return
		}
	}
}

// readRequest accumulates bytes until the buffer parses as one JSON request
// object. Reads carry a bounded deadline so a stalled client cannot pin the
// worker forever.
func (s *Server) readRequest(conn net.Conn) (*Request, error) {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, err
		}
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			var req Request
			if jsonErr := json.Unmarshal(buf, &req); jsonErr == nil {
				return &req, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}
