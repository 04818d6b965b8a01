package notification

import (
	"context"
	"fmt"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// EventBusNotifier implements the application Notifier by publishing a
// CustomerNoticeRequested event per notice
type EventBusNotifier struct {
	publisher shared.EventPublisher
}

// NewEventBusNotifier creates a notifier that publishes on publisher
func NewEventBusNotifier(publisher shared.EventPublisher) *EventBusNotifier {
	return &EventBusNotifier{publisher: publisher}
}

// SendShippingNotice publishes a shipping notice
func (n *EventBusNotifier) SendShippingNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, trackingNumber, carrier string) error {
	evt := NewCustomerNoticeRequestedEvent(KindShipping, order)
	evt.TrackingNumber = trackingNumber
	evt.Carrier = carrier
	evt.TrackingURL = order.TrackingURL
	return n.publish(ctx, evt)
}

// SendDeliveryNotice publishes a delivery notice
func (n *EventBusNotifier) SendDeliveryNotice(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	return n.publish(ctx, NewCustomerNoticeRequestedEvent(KindDelivery, order))
}

// SendIssueNotice publishes an issue notice
func (n *EventBusNotifier) SendIssueNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, description string) error {
	evt := NewCustomerNoticeRequestedEvent(KindIssue, order)
	evt.IssueDescription = description
	return n.publish(ctx, evt)
}

func (n *EventBusNotifier) publish(ctx context.Context, evt *CustomerNoticeRequestedEvent) error {
	if err := n.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish %s notice for %s: %w", evt.Kind, evt.FulfillmentOrderID, err)
	}
	return nil
}

var _ appfulfillment.Notifier = (*EventBusNotifier)(nil)
