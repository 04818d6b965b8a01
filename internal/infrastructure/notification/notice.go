// Package notification turns customer notices into events on the in-process
// bus. Delivery to email or SMS providers subscribes to those events.
package notification

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// EventTypeCustomerNoticeRequested is the event type of every customer notice
const EventTypeCustomerNoticeRequested = "CustomerNoticeRequested"

// Notice kinds
const (
	KindShipping = "shipping"
	KindDelivery = "delivery"
	KindIssue    = "issue"
)

// noticeNamespace seeds deterministic notice event IDs
var noticeNamespace = uuid.MustParse("6f1c2a3e-9b7d-4e58-8c1a-2d4f6b8e0a13")

// CustomerNoticeRequestedEvent asks the delivery side to notify a customer
type CustomerNoticeRequestedEvent struct {
	shared.BaseDomainEvent
	Kind               string    `json:"kind"`
	FulfillmentOrderID uuid.UUID `json:"fulfillment_order_id"`
	CustomerOrderID    uuid.UUID `json:"customer_order_id"`
	OrderVersion       int       `json:"order_version"`
	OrderNumber        string    `json:"order_number,omitempty"`
	CustomerName       string    `json:"customer_name,omitempty"`
	CustomerEmail      string    `json:"customer_email,omitempty"`
	CustomerPhone      string    `json:"customer_phone,omitempty"`
	TrackingNumber     string    `json:"tracking_number,omitempty"`
	Carrier            string    `json:"carrier,omitempty"`
	TrackingURL        string    `json:"tracking_url,omitempty"`
	IssueDescription   string    `json:"issue_description,omitempty"`
}

// NoticeKey identifies one notice for one committed order version
func NoticeKey(kind string, orderID uuid.UUID, version int) string {
	return fmt.Sprintf("%s:%s:v%d", kind, orderID, version)
}

// NewCustomerNoticeRequestedEvent builds the notice for order. The event ID
// is derived from the kind and the committed order version, so the same
// notice published twice carries the same ID.
func NewCustomerNoticeRequestedEvent(kind string, order *fulfillment.FulfillmentOrder) *CustomerNoticeRequestedEvent {
	base := shared.NewBaseDomainEvent(EventTypeCustomerNoticeRequested, fulfillment.AggregateTypeFulfillmentOrder, order.ID)
	base.ID = uuid.NewSHA1(noticeNamespace, []byte(NoticeKey(kind, order.ID, order.GetVersion())))

	evt := &CustomerNoticeRequestedEvent{
		BaseDomainEvent:    base,
		Kind:               kind,
		FulfillmentOrderID: order.ID,
		CustomerOrderID:    order.CustomerOrderID,
		OrderVersion:       order.GetVersion(),
	}
	if co := order.CustomerOrder; co != nil {
		evt.OrderNumber = co.OrderNumber
		evt.CustomerName = co.Customer.Name
		evt.CustomerEmail = co.Customer.Email
		evt.CustomerPhone = co.Customer.Phone
	}
	return evt
}

// Key returns the idempotency key of the notice
func (e *CustomerNoticeRequestedEvent) Key() string {
	return NoticeKey(e.Kind, e.FulfillmentOrderID, e.OrderVersion)
}
