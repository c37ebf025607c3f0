package outbox

import "context"

// Event is any domain event carrying a name identifier.
type Event interface {
	EventName() string
}

// Handler processes one published event.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to interested subscribers. Publication is
// best-effort from the pipeline's point of view: fulfillment never depends
// on a subscriber acknowledging delivery.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
