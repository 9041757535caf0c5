package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chatroom/internal/models"
	"chatroom/internal/room"
	"chatroom/pkg/logger"
)

// Caller identity travels in the "user" header on every message and
// status path, the way the original clients send it.
const userHeader = "user"

type RoomHandlers struct {
	service *room.Service
}

func NewRoomHandlers(service *room.Service) *RoomHandlers {
	return &RoomHandlers{service: service}
}

func (h *RoomHandlers) Join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Join(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *RoomHandlers) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.service.ListParticipants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if participants == nil {
		participants = []*models.Participant{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(participants)
}

func (h *RoomHandlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(userHeader)
	if err := h.service.Heartbeat(r.Context(), name); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *RoomHandlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.From = r.Header.Get(userHeader)

	if err := h.service.PostMessage(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *RoomHandlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	viewer := r.Header.Get(userHeader)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, &room.ValidationError{
				Fields: []string{`"limit" must be a positive integer`},
			})
			return
		}
		limit = parsed
	}

	messages, err := h.service.GetMessages(r.Context(), viewer, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *RoomHandlers) writeError(w http.ResponseWriter, err error) {
	var verr *room.ValidationError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(verr.Fields)
	case errors.Is(err, room.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, room.ErrSenderNotPresent):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, room.ErrNotFound), errors.Is(err, room.ErrNoMessages):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Error("Request failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
