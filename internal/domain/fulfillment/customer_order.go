package fulfillment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is the destination the supplier ships to
type ShippingAddress struct {
	RecipientName string
	Street1       string
	Street2       string
	City          string
	State         string
	PostalCode    string
	Country       string
	Phone         string
}

// MissingFields returns the names of required address fields that are blank
func (a ShippingAddress) MissingFields() []string {
	missing := make([]string, 0, 4)
	required := []struct {
		name  string
		value string
	}{
		{"street", a.Street1},
		{"city", a.City},
		{"state", a.State},
		{"postal code", a.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete returns true when every required address field is present
func (a ShippingAddress) IsComplete() bool {
	return len(a.MissingFields()) == 0
}

// CustomerContact identifies who receives notices about the order
type CustomerContact struct {
	Name  string
	Email string
	Phone string
}

// CustomerOrder is the customer-facing order that owns a fulfillment order.
// It is owned by checkout; fulfillment only writes Status and the three
// lifecycle timestamps.
type CustomerOrder struct {
	ID              uuid.UUID
	OrderNumber     string
	Status          string
	Customer        CustomerContact
	ShippingAddress ShippingAddress
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	UpdatedAt       time.Time
}

// ApplyProjection writes the customer-facing status and stamps the matching
// timestamp if it is not already set.
func (c *CustomerOrder) ApplyProjection(status CustomerOrderStatus, now time.Time) {
	c.Status = string(status)
	switch status {
	case CustomerOrderStatusShipped:
		setOnce(&c.ShippedAt, now)
	case CustomerOrderStatusDelivered:
		setOnce(&c.DeliveredAt, now)
	case CustomerOrderStatusCancelled:
		setOnce(&c.CancelledAt, now)
	}
	c.UpdatedAt = now
}

// Shipment mirrors the carrier information for a customer order
type Shipment struct {
	ID               uuid.UUID
	CustomerOrderID  uuid.UUID
	TrackingNumber   string
	Carrier          string
	TrackingURL      string
	ActualDeliveryAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewShipment creates an empty shipment for a customer order
func NewShipment(customerOrderID uuid.UUID) *Shipment {
	now := time.Now()
	return &Shipment{
		ID:              uuid.New(),
		CustomerOrderID: customerOrderID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AttachTracking overwrites the carrier details
func (s *Shipment) AttachTracking(info TrackingInfo, now time.Time) {
	s.TrackingNumber = info.TrackingNumber
	s.Carrier = info.Carrier
	s.TrackingURL = info.TrackingURL
	s.UpdatedAt = now
}

// MarkDelivered stamps the actual delivery time once
func (s *Shipment) MarkDelivered(now time.Time) {
	setOnce(&s.ActualDeliveryAt, now)
	s.UpdatedAt = now
}

func setOnce(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}
