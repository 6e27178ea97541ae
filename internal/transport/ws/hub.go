package ws

import (
	"log"

	"github.com/google/uuid"
)

// Hub tracks active WebSocket clients and owns their teardown: when a
// client unregisters, its session's live subscriptions are released
// before the send channel closes.
type Hub struct {
	// clients maps userID → client.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if prev, ok := h.clients[client.userID]; ok {
				h.drop(prev)
			}
			h.clients[client.userID] = client
			log.Printf("ws hub: user %s connected (%d total)", client.userID, len(h.clients))

		case client := <-h.unregister:
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				h.drop(client)
				log.Printf("ws hub: user %s disconnected (%d total)", client.userID, len(h.clients))
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	if client.session != nil {
		client.session.Close()
	}
	close(client.send)
	close(client.done)
}
