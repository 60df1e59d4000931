// Package events publishes transaction change notifications.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
)

// Event is a lightweight change notification. Consumers fetch the full
// transaction themselves if they need it.
type Event struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType, transactionID, userID string) Event {
	return Event{
		Type:          eventType,
		TransactionID: transactionID,
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to whoever listens.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NopPublisher) Close() error { return nil }
