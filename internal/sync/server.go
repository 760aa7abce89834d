package sync

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"recipehub/pkg/logger"
)

// Server accepts TCP subscribers and registers them with the hub.
type Server struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run blocks until Close is called or the listener fails.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.Hub.log.Info("tcp sync listening", logger.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Hub.log.Warn("accept failed", logger.Error(err))
			continue
		}

		s.Hub.Add(conn)
		s.Hub.welcome(conn)
		s.Hub.log.Debug("tcp client connected", logger.String("addr", conn.RemoteAddr().String()))

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Hub.log.Debug("tcp client disconnected", logger.String("addr", c.RemoteAddr().String()))
			}()

			// subscribers only listen; drain whatever they send
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

// ListenAddr is the bound address once Run has started, or nil.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
