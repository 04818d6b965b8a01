package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByCustomerOrderID finds the shipment of a customer order
func (r *GormShipmentRepository) FindByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (*fulfillment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).First(&model, "customer_order_id = ?", customerOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.NewNotFoundError("Shipment for customer order", customerOrderID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts the shipment or updates the carrier columns of the existing
// row for the same customer order.
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *fulfillment.Shipment) error {
	model := models.ShipmentModelFromDomain(shipment)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tracking_number",
				"carrier",
				"tracking_url",
				"actual_delivery_at",
				"updated_at",
			}),
		}).
		Create(model).Error
}

// Ensure GormShipmentRepository implements ShipmentRepository
var _ fulfillment.ShipmentRepository = (*GormShipmentRepository)(nil)
