package shared

import "context"

// EventHandler reacts to committed domain events, such as writing the audit
// log or delivering a customer notice
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to receive; empty means every type
	EventTypes() []string
}

// EventPublisher hands events to the subscribed handlers. A non-nil error
// means at least one handler failed; the state change behind the events
// has already been committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registration
type EventSubscriber interface {
	// Subscribe registers handler for eventTypes, falling back to the
	// handler's own EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is the publisher and subscriber sides together with lifecycle hooks
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
