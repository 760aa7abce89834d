package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"recipehub/pkg/logger"
)

const writeTimeout = 2 * time.Second

// Hub fans change events out to every connected TCP and WebSocket client.
// A client whose write fails is dropped.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	log       logger.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		log:       log.With(logger.Component("sync")),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// BroadcastJSON writes v as one JSON line to every client.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal event", logger.Error(err))
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			h.dropLocked(c, err)
			continue
		}
		if err := w.Flush(); err != nil {
			h.dropLocked(c, err)
		}
	}

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug("dropping ws client", logger.Error(err))
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) dropLocked(c net.Conn, err error) {
	h.log.Debug("dropping tcp client", logger.String("addr", c.RemoteAddr().String()), logger.Error(err))
	_ = c.Close()
	delete(h.clients, c)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

func (h *Hub) welcome(conn net.Conn) {
	stats := h.Stats()
	b, _ := json.Marshal(map[string]any{
		"type":    "welcome",
		"message": "connected",
		"clients": stats.TCPClients,
	})
	_, _ = conn.Write(append(b, '\n'))
}
