package fulfillment

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultIssueDescriptionMinLength is the minimum length of an issue description
const DefaultIssueDescriptionMinLength = 10

// FulfillmentItem is one supplier line of a fulfillment order
type FulfillmentItem struct {
	ID                 uuid.UUID
	FulfillmentOrderID uuid.UUID
	LineNo             int
	ProductName        string
	SupplierSKU        string
	Quantity           int
	UnitCost           decimal.Decimal
	TotalCost          decimal.Decimal
	ProductSourceID    *uuid.UUID
	ProductSource      *ProductSource
}

// ResolvedSupplierSKU returns the item's SKU, falling back to its product source
func (i *FulfillmentItem) ResolvedSupplierSKU() string {
	if sku := strings.TrimSpace(i.SupplierSKU); sku != "" {
		return sku
	}
	if i.ProductSource != nil {
		return strings.TrimSpace(i.ProductSource.SupplierSKU)
	}
	return ""
}

// ItemSpec describes a line item when a fulfillment order is created
type ItemSpec struct {
	ProductName     string
	SupplierSKU     string
	Quantity        int
	UnitCost        decimal.Decimal
	ProductSourceID *uuid.UUID
}

// TrackingInfo is the carrier identity for a shipped order
type TrackingInfo struct {
	TrackingNumber string
	Carrier        string
	TrackingURL    string
}

// FulfillmentOrder is the aggregate root tracking a dropshipped customer
// order through its supplier lifecycle. It is mutated only through
// TransitionTo, AttachTracking and RecordSupplierOrder.
type FulfillmentOrder struct {
	shared.BaseAggregateRoot
	CustomerOrderID  uuid.UUID
	Status           Status
	SupplierOrderID  string
	TrackingNumber   string
	Carrier          string
	TrackingURL      string
	PlacedAt         *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	ActualDeliveryAt *time.Time
	IssueDescription string
	Currency         string
	ShippingCost     decimal.Decimal
	TotalCost        decimal.Decimal
	Items            []FulfillmentItem

	// CustomerOrder is loaded read-only alongside the aggregate
	CustomerOrder *CustomerOrder
}

var _ shared.AggregateRoot = (*FulfillmentOrder)(nil)

// NewFulfillmentOrder creates a fulfillment order in PENDING for a confirmed customer order
func NewFulfillmentOrder(customerOrderID uuid.UUID, currency string, shippingCost decimal.Decimal, items []ItemSpec) (*FulfillmentOrder, error) {
	if customerOrderID == uuid.Nil {
		return nil, NewValidationError("Customer order ID cannot be empty")
	}
	if shippingCost.IsNegative() {
		return nil, NewValidationError("Shipping cost cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	order := &FulfillmentOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerOrderID:   customerOrderID,
		Status:            StatusPending,
		Currency:          currency,
		ShippingCost:      shippingCost,
		Items:             make([]FulfillmentItem, 0, len(items)),
	}

	subtotal := decimal.Zero
	for i, spec := range items {
		if spec.Quantity <= 0 {
			return nil, NewValidationError(fmt.Sprintf("Item %d quantity must be positive", i+1))
		}
		if spec.UnitCost.IsNegative() {
			return nil, NewValidationError(fmt.Sprintf("Item %d unit cost cannot be negative", i+1))
		}
		lineTotal := spec.UnitCost.Mul(decimal.NewFromInt(int64(spec.Quantity)))
		order.Items = append(order.Items, FulfillmentItem{
			ID:                 uuid.New(),
			FulfillmentOrderID: order.ID,
			LineNo:             i + 1,
			ProductName:        spec.ProductName,
			SupplierSKU:        strings.TrimSpace(spec.SupplierSKU),
			Quantity:           spec.Quantity,
			UnitCost:           spec.UnitCost,
			TotalCost:          lineTotal,
			ProductSourceID:    spec.ProductSourceID,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	order.TotalCost = subtotal.Add(shippingCost)

	order.AddDomainEvent(NewFulfillmentOrderCreatedEvent(order))

	return order, nil
}

// Subtotal returns the sum of the item costs without shipping
func (o *FulfillmentOrder) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalCost)
	}
	return total
}

// TransitionTo moves the order to target. Legality is decided by the
// transition table alone; an ISSUE target additionally requires a
// description of at least minIssueLength characters. Stage timestamps are
// stamped on first entry and never overwritten.
func (o *FulfillmentOrder) TransitionTo(target Status, issueDescription string, minIssueLength int, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return NewTransitionError(o.Status, target)
	}

	if target == StatusIssue {
		desc := strings.TrimSpace(issueDescription)
		if utf8.RuneCountInString(desc) < minIssueLength {
			return NewValidationError(fmt.Sprintf("Issue description must be at least %d characters", minIssueLength))
		}
		o.IssueDescription = desc
	}

	switch target {
	case StatusPlaced:
		setOnce(&o.PlacedAt, now)
	case StatusShipped:
		setOnce(&o.ShippedAt, now)
	case StatusDelivered:
		setOnce(&o.DeliveredAt, now)
		setOnce(&o.ActualDeliveryAt, now)
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = now

	o.AddDomainEvent(NewFulfillmentStatusChangedEvent(o, from))

	return nil
}

// AttachTracking records the carrier identity. It is independent of status.
func (o *FulfillmentOrder) AttachTracking(info TrackingInfo, now time.Time) error {
	info.TrackingNumber = strings.TrimSpace(info.TrackingNumber)
	if info.TrackingNumber == "" {
		return NewValidationError("Tracking number is required")
	}
	if utf8.RuneCountInString(info.TrackingNumber) > 100 {
		return NewValidationError("Tracking number cannot exceed 100 characters")
	}

	o.TrackingNumber = info.TrackingNumber
	o.Carrier = strings.TrimSpace(info.Carrier)
	o.TrackingURL = strings.TrimSpace(info.TrackingURL)
	o.UpdatedAt = now

	o.AddDomainEvent(NewFulfillmentTrackingAttachedEvent(o))

	return nil
}

// Tracking returns the current carrier identity
func (o *FulfillmentOrder) Tracking() TrackingInfo {
	return TrackingInfo{
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		TrackingURL:    o.TrackingURL,
	}
}

// RecordSupplierOrder stores the supplier's order identifier. Once set it
// can only be re-recorded with the same value.
func (o *FulfillmentOrder) RecordSupplierOrder(supplierOrderID string, now time.Time) error {
	supplierOrderID = strings.TrimSpace(supplierOrderID)
	if supplierOrderID == "" {
		return NewValidationError("Supplier order ID is required")
	}
	if o.SupplierOrderID != "" && o.SupplierOrderID != supplierOrderID {
		return NewValidationError(fmt.Sprintf("Supplier order ID already recorded as %s", o.SupplierOrderID))
	}
	o.SupplierOrderID = supplierOrderID
	o.UpdatedAt = now
	return nil
}

// IsTerminal returns true if the order can no longer transition
func (o *FulfillmentOrder) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemCount returns the number of line items
func (o *FulfillmentOrder) ItemCount() int {
	return len(o.Items)
}
