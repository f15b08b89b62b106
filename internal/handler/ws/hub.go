// Package ws pushes fund table updates to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"SumReport/internal/domain/models"
	applogger "SumReport/pkg/logger"
)

// MessageTypeTable tags table payloads.
const MessageTypeTable = "table"

// Message is the frame sent to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub owns the client set. All mutations happen in Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]struct{}
	count      atomic.Int64
	// done is closed when Run returns.
	done       chan struct{}
	l          *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
		l:          l,
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.l.Debug("ws client registered", applogger.String("client_id", c.id))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.l.Warn("ws client too slow, dropping", applogger.String("client_id", c.id))
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// join registers c. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// NotifyTable implements repository.Notifier. It never blocks; when the
// broadcast buffer is full the update is dropped.
func (h *Hub) NotifyTable(t *models.Table) {
	b, err := encode(t)
	if err != nil {
		h.l.Error("ws encode table", applogger.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.l.Warn("ws broadcast buffer full, update dropped", applogger.String("batch_id", t.BatchID))
	}
}

func encode(t *models.Table) ([]byte, error) {
	return json.Marshal(Message{Type: MessageTypeTable, Data: t})
}
