package handlers

import (
	"net/http"

	"chatroom/internal/room"
	ws "chatroom/internal/websocket"
	"chatroom/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	service  *room.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWebSocketHandlers(service *room.Service, hub *ws.Hub) *WebSocketHandlers {
	return &WebSocketHandlers{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket attaches a viewer to the live feed. The viewer name
// comes from the "user" query parameter, mirroring the header the REST
// paths use.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer := r.URL.Query().Get("user")
	if viewer == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, viewer, h.service)
	client.Start()
}
