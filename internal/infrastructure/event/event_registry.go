package event

import (
	"github.com/storefront/backend/internal/domain/fulfillment"
)

// RegisterFulfillmentEvents registers the fulfillment aggregate's events
func RegisterFulfillmentEvents(serializer *EventSerializer) {
	serializer.Register(fulfillment.EventTypeFulfillmentOrderCreated, &fulfillment.FulfillmentOrderCreatedEvent{})
	serializer.Register(fulfillment.EventTypeFulfillmentStatusChanged, &fulfillment.FulfillmentStatusChangedEvent{})
	serializer.Register(fulfillment.EventTypeFulfillmentTrackingAttached, &fulfillment.FulfillmentTrackingAttachedEvent{})
}
