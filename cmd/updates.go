package cmd

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luma/lagoon/storage"
)

// updateMessage is sent to websocket clients for every changed leaf.
type updateMessage struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// updateHub streams store updates to websocket clients.
type updateHub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader

	log *zap.Logger
}

func newUpdateHub(log *zap.Logger) *updateHub {
	return &updateHub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *updateHub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Clients never send anything, reading only notices them leaving
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// Run forwards updates until the channel is closed.
func (h *updateHub) Run(updates <-chan *storage.Update) {
	for update := range updates {
		h.broadcast(updateMessage{Key: string(update.Key), Value: update.Value})
	}
}

func (h *updateHub) broadcast(msg updateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("Failed to encode update", zap.String("key", msg.Key), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(client)
		}
	}
}

// Len returns the number of connected clients.
func (h *updateHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *updateHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}

// Close disconnects every client.
func (h *updateHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		_ = client.Close()
		delete(h.clients, client)
	}
}
