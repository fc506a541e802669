package pubsub

import "context"

type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

type Event[T any] struct {
	Type    EventType `json:"type"`
	Payload T         `json:"payload"`
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
