// Package websocket fans the server's Event Bus (C10, §4.10) out to
// dashboard clients over an authenticated bi-directional channel.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Manager subscribes once to the Event Bus and relays every Event to every
// connected dashboard client, in publish order (§4.10 "per-publisher
// FIFO"). A slow client is dropped rather than allowed to block the fan-out.
type Manager struct {
	bus    ports.EventBus
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds a Manager bound to bus.
func New(bus ports.EventBus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{bus: bus, logger: logger, clients: make(map[*websocket.Conn]struct{})}
}

// Start subscribes to the bus and relays events until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	ch, unsubscribe := m.bus.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				m.broadcast(evt)
			}
		}
	}()
}

// HandleWebSocket upgrades the dashboard connection. The handshake itself
// reuses the router's Basic Auth middleware (§6 "the WebSocket handshake
// reuses the same header").
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket: upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()

	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *Manager) broadcast(evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		m.logger.Error("websocket: marshal event failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}
