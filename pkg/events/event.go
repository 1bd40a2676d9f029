package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_PURCHASED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event types published on events.<TYPE>.
const (
	SessionPurchased     = "SESSION_PURCHASED"
	SessionExpired       = "SESSION_EXPIRED"
	TokensConsumed       = "TOKENS_CONSUMED"
	UsageReconcileFailed = "USAGE_RECONCILE_FAILED"
)

// New stamps an event with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

// Publisher sends events to the bus. pkg/nats provides the JetStream implementation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
