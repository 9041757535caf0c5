package websocket

import (
	"context"
	"errors"
	"time"

	"chatroom/internal/room"
	"chatroom/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client is one live-feed connection. Any frame the viewer sends
// counts as a heartbeat for that participant.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	viewer    string
	sessionID string
	service   *room.Service
}

func NewClient(hub *Hub, conn *websocket.Conn, viewer string, service *room.Service) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		viewer:    viewer,
		sessionID: uuid.NewString(),
		service:   service,
	}
}

func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error (session %s): %v", c.sessionID, err)
			}
			break
		}

		// Inbound traffic keeps the participant alive.
		err := c.service.Heartbeat(context.Background(), c.viewer)
		if err != nil && !errors.Is(err, room.ErrNotFound) {
			logger.Error("Error refreshing presence for %s: %v", c.viewer, err)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
