package websockets

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
)

const broadcastBuffer = 64

// Hub fans recorded audit entries out to every connected client. One
// goroutine (Run) owns the client set.
type Hub struct {
	clients map[*Client]struct{}

	register chan *Client

	unregister chan *Client

	broadcast chan []byte

	done chan struct{}

	count atomic.Int64

	log logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log.WithField("component", "audit-feed"),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.drop(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Add(1)
			h.log.WithField("username", client.username).Debug("Audit feed client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// too slow to keep up
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Add(-1)
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// PublishAction queues entry for every client. It never blocks; entries
// are dropped when the hub is stopped or its buffer is full.
func (h *Hub) PublishAction(entry models.ActionLog) {
	data, err := json.Marshal(entry)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode audit entry")
		return
	}

	message, err := json.Marshal(Message{Type: TypeAuditAction, Data: data})
	if err != nil {
		h.log.WithError(err).Error("Failed to encode audit message")
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- message:
	default:
		h.log.WithField("action", entry.Action).Warn("Audit feed buffer full, dropping entry")
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
