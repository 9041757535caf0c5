package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatroom/internal/models"
	"chatroom/internal/store"

	"github.com/go-playground/validator/v10"
)

const timeLayout = "15:04:05"

const (
	arrivalText   = "joined the room"
	departureText = "left the room"
)

// Broadcaster receives every message the moment it lands in the log.
// Implemented by the websocket hub; nil disables the live feed.
type Broadcaster interface {
	BroadcastMessage(msg *models.Message)
}

// Service is the room controller: it owns join/heartbeat/post/read
// semantics and talks to the rest of the world only through the store.
type Service struct {
	store       store.Store
	validate    *validator.Validate
	broadcaster Broadcaster
	now         func() time.Time
}

func NewService(st store.Store, b Broadcaster) *Service {
	return &Service{
		store:       st,
		validate:    validator.New(),
		broadcaster: b,
		now:         time.Now,
	}
}

// Join registers a new participant and announces the arrival.
func (s *Service) Join(ctx context.Context, req models.JoinRequest) error {
	if err := s.checkStruct(req); err != nil {
		return err
	}

	// Existence check and insert are separate atomic operations, so two
	// racing joins with the same name can both get through. Tolerated.
	_, err := s.store.GetParticipant(ctx, req.Name)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	now := s.now()
	if err := s.store.CreateParticipant(ctx, req.Name, now); err != nil {
		return err
	}

	notice := &models.Message{
		From: req.Name,
		To:   models.Everyone,
		Text: arrivalText,
		Type: models.MessageTypeStatus,
		Time: now.Format(timeLayout),
	}
	if err := s.store.AppendMessage(ctx, notice); err != nil {
		return err
	}

	s.broadcast(notice)
	return nil
}

// Heartbeat refreshes the participant's lastSeen. Idempotent.
func (s *Service) Heartbeat(ctx context.Context, name string) error {
	err := s.store.TouchParticipant(ctx, name, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Service) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return s.store.ListParticipants(ctx)
}

// PostMessage validates and appends a user message. Senders that are
// not currently in the room are rejected.
func (s *Service) PostMessage(ctx context.Context, req models.PostMessageRequest) error {
	if err := s.checkStruct(req); err != nil {
		return err
	}

	if _, err := s.store.GetParticipant(ctx, req.From); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSenderNotPresent
		}
		return err
	}

	msg := &models.Message{
		From: req.From,
		To:   req.To,
		Text: req.Text,
		Type: req.Type,
		Time: s.now().Format(timeLayout),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return err
	}

	s.broadcast(msg)
	return nil
}

// GetMessages returns the slice of the log visible to viewer, oldest
// first, optionally limited to the most recent matches. Zero matches is
// a distinct no-content outcome, not an empty success.
func (s *Service) GetMessages(ctx context.Context, viewer string, limit int) ([]*models.Message, error) {
	log, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, err
	}

	visible := FilterMessages(log, viewer, limit)
	if len(visible) == 0 {
		return nil, ErrNoMessages
	}
	return visible, nil
}

func (s *Service) broadcast(msg *models.Message) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(msg)
	}
}

func (s *Service) checkStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldMessage(fe))
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%q is required and must not be empty", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
