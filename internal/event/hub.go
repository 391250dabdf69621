package event

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients
		}
		// Allow same-origin connections
		return strings.HasSuffix(origin, "://"+r.Host)
	},
}

// Hub fans bus events out to websocket viewers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
	logger  *slog.Logger
}

// NewHub creates a Hub and subscribes it to every event on bus.
func NewHub(bus *Bus, logger *slog.Logger) *Hub {
	h := &Hub{
		clients: make(map[string]chan []byte),
		logger:  logger,
	}
	bus.Subscribe(Wildcard, h.broadcast)
	return h
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register() (string, chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
	h.mu.Unlock()
}

// broadcast never blocks the publisher: a viewer whose buffer is full is
// dropped and has to reconnect.
func (h *Hub) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "event", ev.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("dropping slow event viewer", "client", id)
			delete(h.clients, id)
			close(ch)
		}
	}
}

// ServeWS upgrades the request and streams events until the viewer leaves.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, ch := h.register()
	defer h.unregister(id)
	h.logger.Debug("event viewer connected", "client", id)

	// Reader: only needed to process pongs and notice the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.logger.Debug("event viewer disconnected", "client", id)
			return
		}
	}
}
