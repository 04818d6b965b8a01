package fulfillment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeFulfillmentOrder = "FulfillmentOrder"

// Event type constants
const (
	EventTypeFulfillmentOrderCreated     = "FulfillmentOrderCreated"
	EventTypeFulfillmentStatusChanged    = "FulfillmentStatusChanged"
	EventTypeFulfillmentTrackingAttached = "FulfillmentTrackingAttached"
)

// FulfillmentOrderCreatedEvent is raised when a fulfillment order enters PENDING
type FulfillmentOrderCreatedEvent struct {
	shared.BaseDomainEvent
	FulfillmentOrderID uuid.UUID       `json:"fulfillment_order_id"`
	CustomerOrderID    uuid.UUID       `json:"customer_order_id"`
	ItemCount          int             `json:"item_count"`
	TotalCost          decimal.Decimal `json:"total_cost"`
}

// NewFulfillmentOrderCreatedEvent creates a new FulfillmentOrderCreatedEvent
func NewFulfillmentOrderCreatedEvent(order *FulfillmentOrder) *FulfillmentOrderCreatedEvent {
	return &FulfillmentOrderCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeFulfillmentOrderCreated, AggregateTypeFulfillmentOrder, order.ID),
		FulfillmentOrderID: order.ID,
		CustomerOrderID:    order.CustomerOrderID,
		ItemCount:          len(order.Items),
		TotalCost:          order.TotalCost,
	}
}

// FulfillmentStatusChangedEvent is raised for every committed status transition
type FulfillmentStatusChangedEvent struct {
	shared.BaseDomainEvent
	FulfillmentOrderID uuid.UUID `json:"fulfillment_order_id"`
	CustomerOrderID    uuid.UUID `json:"customer_order_id"`
	FromStatus         Status    `json:"from_status"`
	ToStatus           Status    `json:"to_status"`
	IssueDescription   string    `json:"issue_description,omitempty"`
	TrackingNumber     string    `json:"tracking_number,omitempty"`
}

// NewFulfillmentStatusChangedEvent creates a new FulfillmentStatusChangedEvent
func NewFulfillmentStatusChangedEvent(order *FulfillmentOrder, from Status) *FulfillmentStatusChangedEvent {
	e := &FulfillmentStatusChangedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeFulfillmentStatusChanged, AggregateTypeFulfillmentOrder, order.ID),
		FulfillmentOrderID: order.ID,
		CustomerOrderID:    order.CustomerOrderID,
		FromStatus:         from,
		ToStatus:           order.Status,
		TrackingNumber:     order.TrackingNumber,
	}
	if order.Status == StatusIssue {
		e.IssueDescription = order.IssueDescription
	}
	return e
}

// FulfillmentTrackingAttachedEvent is raised when carrier details are recorded
type FulfillmentTrackingAttachedEvent struct {
	shared.BaseDomainEvent
	FulfillmentOrderID uuid.UUID `json:"fulfillment_order_id"`
	CustomerOrderID    uuid.UUID `json:"customer_order_id"`
	TrackingNumber     string    `json:"tracking_number"`
	Carrier            string    `json:"carrier,omitempty"`
	TrackingURL        string    `json:"tracking_url,omitempty"`
}

// NewFulfillmentTrackingAttachedEvent creates a new FulfillmentTrackingAttachedEvent
func NewFulfillmentTrackingAttachedEvent(order *FulfillmentOrder) *FulfillmentTrackingAttachedEvent {
	return &FulfillmentTrackingAttachedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeFulfillmentTrackingAttached, AggregateTypeFulfillmentOrder, order.ID),
		FulfillmentOrderID: order.ID,
		CustomerOrderID:    order.CustomerOrderID,
		TrackingNumber:     order.TrackingNumber,
		Carrier:            order.Carrier,
		TrackingURL:        order.TrackingURL,
	}
}
