// Package stream pushes live simulation state to websocket clients and
// exposes Prometheus metrics for the headless server.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// writeWait bounds how long a slow client can stall a broadcast.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope wraps every outbound frame with a type tag so clients can
// route snapshots and events without peeking at the payload.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to conn
}

// Hub fans simulation snapshots and log events out to connected
// websocket clients. It implements sim.EventSink, so adding it as a
// sink streams the event feed live.
type Hub struct {
	log zerolog.Logger

	mu   sync.Mutex
	subs map[string]*subscriber
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[string]*subscriber),
	}
}

// HandleWS upgrades the request and registers the client. Inbound
// messages are read and discarded; the feed is one-way.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.subs[sub.id] = sub
	count := len(h.subs)
	h.mu.Unlock()
	h.log.Info().Str("client", sub.id).Int("clients", count).Msg("Client connected")

	go h.readLoop(sub)
}

func (h *Hub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.Disconnect(sub.id)
			return
		}
	}
}

// Disconnect drops a client and closes its connection. Safe to call for
// ids that are already gone.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	_ = sub.conn.Close()
	h.log.Info().Str("client", id).Int("clients", count).Msg("Client disconnected")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// BroadcastSnapshot sends a world snapshot to every client.
func (h *Hub) BroadcastSnapshot(snap sim.Snapshot) {
	h.broadcast("snapshot", snap)
}

// HandleSimEvent streams one log entry to every client. Implements
// sim.EventSink.
func (h *Hub) HandleSimEvent(e sim.SimLogEntry) {
	h.broadcast("event", e)
}

// broadcast marshals the envelope once and writes it to each client
// under that client's write lock. Clients that fail a write are dropped.
func (h *Hub) broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("Failed to marshal broadcast")
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, payload)
		sub.mu.Unlock()
		if err != nil {
			h.log.Warn().Err(err).Str("client", sub.id).Msg("Write failed, dropping client")
			h.Disconnect(sub.id)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.conn.Close()
	}
}
