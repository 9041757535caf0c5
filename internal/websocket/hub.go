package websocket

import (
	"encoding/json"

	"chatroom/internal/models"
	"chatroom/internal/room"
	"chatroom/pkg/logger"
)

// Hub fans newly created messages out to connected viewers. Each
// delivery goes through the same visibility rule as the read path, so
// a private message only ever reaches its sender and recipient.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *models.Message
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *models.Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			logger.Info("Viewer %s connected to the live feed", client.viewer)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logger.Info("Viewer %s disconnected from the live feed", client.viewer)
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// BroadcastMessage implements room.Broadcaster. Non-blocking: if the
// hub is saturated the message is dropped from the feed only; it is
// already in the store and shows up on the next read.
func (h *Hub) BroadcastMessage(msg *models.Message) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Error("Live feed backlog full, dropping broadcast of message from %s", msg.From)
	}
}

func (h *Hub) deliver(msg *models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Error marshaling live feed message: %v", err)
		return
	}

	for client := range h.clients {
		if !room.Visible(msg, client.viewer) {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.shutdown <- struct{}{}:
	default:
	}
}
