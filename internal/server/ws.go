package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handsignal/internal/app"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// EventSource provides controller events and the current state.
type EventSource interface {
	Subscribe(buffer int) (<-chan app.Event, func())
	Snapshot() app.Snapshot
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// EventsHandler broadcasts controller events to WebSocket clients.
type EventsHandler struct {
	source  EventSource
	clients map[*wsClient]bool
	mu      sync.RWMutex

	unsubscribe func()
	done        chan struct{}
}

// NewEventsHandler creates a new EventsHandler fed by source.
func NewEventsHandler(source EventSource) *EventsHandler {
	events, unsubscribe := source.Subscribe(256)
	h := &EventsHandler{
		source:      source,
		clients:     make(map[*wsClient]bool),
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}
	go h.broadcast(events)
	return h
}

// ServeHTTP handles WebSocket upgrade requests. The current state is sent
// as a status message first.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}

	snap := h.source.Snapshot()
	hello, _ := json.Marshal(app.Event{
		Kind:    app.EventStatus,
		Time:    time.Now(),
		Mode:    snap.Mode,
		Session: snap.Session,
		Status:  snap.Status,
		Label:   snap.Label,
	})
	if err := client.write(hello); err != nil {
		return
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends every event to all connected clients until the event
// channel closes.
func (h *EventsHandler) broadcast(events <-chan app.Event) {
	defer close(h.done)

	for ev := range events {
		msg, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients := make([]*wsClient, 0, len(h.clients))
		for c := range h.clients {
			clients = append(clients, c)
		}
		h.mu.RUnlock()

		for _, c := range clients {
			if err := c.write(msg); err != nil {
				c.conn.Close()
			}
		}
	}
}

// Close stops broadcasting and disconnects all clients.
func (h *EventsHandler) Close() {
	h.unsubscribe()
	<-h.done

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
