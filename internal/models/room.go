package models

import "time"

// Everyone is the distinguished broadcast recipient: messages addressed
// to it are visible to every viewer, past and future.
const Everyone = "everyone"

type MessageType string

const (
	MessageTypeMessage MessageType = "message"
	MessageTypePrivate MessageType = "private_message"
	MessageTypeStatus  MessageType = "status"
)

type Participant struct {
	Name     string    `json:"name"`
	LastSeen time.Time `json:"lastSeen"`
}

// Message is an immutable entry in the append-only room log. Time is
// assigned server-side at insertion and formatted for display.
type Message struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
}

type JoinRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// PostMessageRequest carries the body of POST /messages. From is filled
// in from the caller identity header, never from the body.
type PostMessageRequest struct {
	From string      `json:"-" validate:"required,min=1"`
	To   string      `json:"to" validate:"required,min=1"`
	Text string      `json:"text" validate:"required,min=1"`
	Type MessageType `json:"type" validate:"required,oneof=message private_message"`
}
