package fulfillment

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// FilterKeyStatus is the shared.Filter key used to restrict listings by status
const FilterKeyStatus = "status"

// FulfillmentOrderRepository defines persistence for fulfillment orders
type FulfillmentOrderRepository interface {
	// FindByID loads the order with its items, product sources and customer order
	FindByID(ctx context.Context, id uuid.UUID) (*FulfillmentOrder, error)

	// FindStatus reads the committed status without locking the row
	FindStatus(ctx context.Context, id uuid.UUID) (Status, error)

	// FindByIDForUpdate loads the order and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FulfillmentOrder, error)

	// ExistsByCustomerOrderID reports whether the customer order already has a fulfillment order
	ExistsByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (bool, error)

	// FindAll lists orders, newest first, honoring FilterKeyStatus
	FindAll(ctx context.Context, filter shared.Filter) ([]FulfillmentOrder, error)

	// Count counts orders honoring FilterKeyStatus
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order *FulfillmentOrder) error

	// SaveWithLock writes the mutable fields if the stored version still
	// equals order.Version, then increments the version.
	SaveWithLock(ctx context.Context, order *FulfillmentOrder) error
}

// CustomerOrderRepository reads customer orders and writes the fulfillment projection
type CustomerOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerOrder, error)

	// SaveProjection writes only status, shipped_at, delivered_at and cancelled_at
	SaveProjection(ctx context.Context, order *CustomerOrder) error
}

// ShipmentRepository defines persistence for shipments
type ShipmentRepository interface {
	// FindByCustomerOrderID returns shared.ErrNotFound when no shipment exists
	FindByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (*Shipment, error)

	// Save inserts or updates the shipment
	Save(ctx context.Context, shipment *Shipment) error
}
