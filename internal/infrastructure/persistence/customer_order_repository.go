package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCustomerOrderRepository implements CustomerOrderRepository using GORM
type GormCustomerOrderRepository struct {
	db *gorm.DB
}

// NewGormCustomerOrderRepository creates a new GormCustomerOrderRepository
func NewGormCustomerOrderRepository(db *gorm.DB) *GormCustomerOrderRepository {
	return &GormCustomerOrderRepository{db: db}
}

// FindByID finds a customer order by its ID
func (r *GormCustomerOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.CustomerOrder, error) {
	var model models.CustomerOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.NewNotFoundError("Customer order", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveProjection writes the status projection. Every other column belongs to checkout.
func (r *GormCustomerOrderRepository) SaveProjection(ctx context.Context, order *fulfillment.CustomerOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerOrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"shipped_at":   order.ShippedAt,
			"delivered_at": order.DeliveredAt,
			"cancelled_at": order.CancelledAt,
			"updated_at":   order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fulfillment.NewNotFoundError("Customer order", order.ID)
	}
	return nil
}

// Ensure GormCustomerOrderRepository implements CustomerOrderRepository
var _ fulfillment.CustomerOrderRepository = (*GormCustomerOrderRepository)(nil)
