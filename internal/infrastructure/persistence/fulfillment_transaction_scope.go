package persistence

import (
	"context"

	"gorm.io/gorm"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/domain/fulfillment"
)

// GormFulfillmentTransactionScope implements TransactionScope using GORM transactions.
// The fulfillment order, its customer order projection and its shipment
// commit or roll back together.
type GormFulfillmentTransactionScope struct {
	db *gorm.DB
}

// NewGormFulfillmentTransactionScope creates a new GormFulfillmentTransactionScope.
func NewGormFulfillmentTransactionScope(db *gorm.DB) *GormFulfillmentTransactionScope {
	return &GormFulfillmentTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error or a
// panic inside fn rolls the transaction back.
func (s *GormFulfillmentTransactionScope) Execute(ctx context.Context, fn func(repos appfulfillment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormFulfillmentRepositories{tx: tx})
	})
}

type gormFulfillmentRepositories struct {
	tx *gorm.DB
}

// FulfillmentOrderRepo returns the fulfillment order repository scoped to the current transaction.
func (r *gormFulfillmentRepositories) FulfillmentOrderRepo() fulfillment.FulfillmentOrderRepository {
	return NewGormFulfillmentOrderRepository(r.tx)
}

// CustomerOrderRepo returns the customer order repository scoped to the current transaction.
func (r *gormFulfillmentRepositories) CustomerOrderRepo() fulfillment.CustomerOrderRepository {
	return NewGormCustomerOrderRepository(r.tx)
}

// ShipmentRepo returns the shipment repository scoped to the current transaction.
func (r *gormFulfillmentRepositories) ShipmentRepo() fulfillment.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

var (
	_ appfulfillment.TransactionScope          = (*GormFulfillmentTransactionScope)(nil)
	_ appfulfillment.TransactionalRepositories = (*gormFulfillmentRepositories)(nil)
)
