package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clubhub/wifimon/internal/model"
)

const (
	writeTimeout = 10 * time.Second
	// Slow subscribers are dropped rather than allowed to stall a cycle.
	clientBuffer = 8
)

// Hub fans each cycle summary out to websocket subscribers. It implements
// service.EventSink, so the monitor stays unaware of the transport.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan model.CycleSummary
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API listens on the LAN only; the dashboard is served
			// from a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]chan model.CycleSummary),
	}
}

// Publish queues the summary for every subscriber. Subscribers whose buffer
// is full miss the event; the next one carries fresher state anyway.
func (h *Hub) Publish(summary model.CycleSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- summary:
		default:
			h.logger.Debug("dropping event for slow subscriber", "remote", conn.RemoteAddr())
		}
	}
}

// Subscribe upgrades the request and streams cycle summaries until the peer
// disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	ch := make(chan model.CycleSummary, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	h.logger.Debug("event subscriber connected", "remote", conn.RemoteAddr())

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-r.Context().Done():
			return nil
		case summary := <-ch:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return err
			}
			if err := conn.WriteJSON(summary); err != nil {
				return err
			}
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
