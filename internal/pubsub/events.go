// Package pubsub provides a generic publish/subscribe event system.
//
// regform uses it for two streams: debug log entries and submission
// outcomes, both consumed by the Bubble Tea loop through ContinuousListener.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// CreatedEvent marks a new item, such as a log entry.
	CreatedEvent EventType = "created"
	// SubmittedEvent marks a registration handed to the sinks.
	SubmittedEvent EventType = "submitted"
	// FailedEvent marks a submission a sink rejected.
	FailedEvent EventType = "failed"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
