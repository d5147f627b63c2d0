package model

import (
	"time"
)

// EventType represents the type of store event.
type EventType string

const (
	EventTypeReloadStarted   EventType = "reload_started"
	EventTypeReloadComplete  EventType = "reload_complete"
	EventTypeMessageBatch    EventType = "message_batch"
	EventTypeUserResolved    EventType = "user_resolved"
	EventTypeReadChanged     EventType = "read_changed"
	EventTypeReactionToggled EventType = "reaction_toggled"
	EventTypeMessageSent     EventType = "message_sent"
	EventTypeError           EventType = "error"
)

// StoreEvent represents a change in the message store.
type StoreEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ChannelID string    `json:"channel_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorEvent represents an error event on a live feed.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
