package fulfillment

import (
	"context"

	"github.com/storefront/backend/internal/domain/fulfillment"
)

// TransactionScope provides transactional access to the three records a
// transition touches. Everything done through the repositories handed to fn
// commits together or rolls back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories sharing one transaction.
//
// Aggregate boundary notes:
//   - FulfillmentOrderRepo: the FulfillmentOrder aggregate root, including its items.
//   - CustomerOrderRepo: only the status projection of the owning order is written.
//   - ShipmentRepo: the shipment mirrors tracking and actual delivery time.
type TransactionalRepositories interface {
	// FulfillmentOrderRepo returns the fulfillment order repository scoped to the current transaction
	FulfillmentOrderRepo() fulfillment.FulfillmentOrderRepository
	// CustomerOrderRepo returns the customer order repository scoped to the current transaction
	CustomerOrderRepo() fulfillment.CustomerOrderRepository
	// ShipmentRepo returns the shipment repository scoped to the current transaction
	ShipmentRepo() fulfillment.ShipmentRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// This is useful for testing.
type NoOpTransactionScope struct {
	orderRepo         fulfillment.FulfillmentOrderRepository
	customerOrderRepo fulfillment.CustomerOrderRepository
	shipmentRepo      fulfillment.ShipmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo fulfillment.FulfillmentOrderRepository,
	customerOrderRepo fulfillment.CustomerOrderRepository,
	shipmentRepo fulfillment.ShipmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:         orderRepo,
		customerOrderRepo: customerOrderRepo,
		shipmentRepo:      shipmentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// FulfillmentOrderRepo returns the fulfillment order repository.
func (s *NoOpTransactionScope) FulfillmentOrderRepo() fulfillment.FulfillmentOrderRepository {
	return s.orderRepo
}

// CustomerOrderRepo returns the customer order repository.
func (s *NoOpTransactionScope) CustomerOrderRepo() fulfillment.CustomerOrderRepository {
	return s.customerOrderRepo
}

// ShipmentRepo returns the shipment repository.
func (s *NoOpTransactionScope) ShipmentRepo() fulfillment.ShipmentRepository {
	return s.shipmentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
