package store

import (
	"context"
	"errors"
	"time"

	"chatroom/internal/models"
)

// ErrNotFound is returned when the requested record does not exist,
// regardless of driver.
var ErrNotFound = errors.New("record not found")

type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, name string, lastSeen time.Time) error
	GetParticipant(ctx context.Context, name string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
	// TouchParticipant refreshes lastSeen for an existing participant.
	// Returns ErrNotFound if no such participant is live.
	TouchParticipant(ctx context.Context, name string, lastSeen time.Time) error
	ListStaleParticipants(ctx context.Context, cutoff time.Time) ([]*models.Participant, error)
	// DeleteStaleParticipants removes every participant whose lastSeen
	// is at or before cutoff. The staleness condition is re-evaluated
	// at delete time, not against an earlier read.
	DeleteStaleParticipants(ctx context.Context, cutoff time.Time) error
}

type MessageRepository interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	AppendMessages(ctx context.Context, msgs []*models.Message) error
	// ListMessages returns the full log in insertion order, oldest first.
	ListMessages(ctx context.Context) ([]*models.Message, error)
}

type Store interface {
	ParticipantRepository
	MessageRepository
	Close() error
}
