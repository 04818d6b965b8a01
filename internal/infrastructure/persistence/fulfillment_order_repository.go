package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormFulfillmentOrderRepository implements FulfillmentOrderRepository using GORM
type GormFulfillmentOrderRepository struct {
	db *gorm.DB
}

// NewGormFulfillmentOrderRepository creates a new GormFulfillmentOrderRepository
func NewGormFulfillmentOrderRepository(db *gorm.DB) *GormFulfillmentOrderRepository {
	return &GormFulfillmentOrderRepository{db: db}
}

func (r *GormFulfillmentOrderRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Preload("Items.ProductSource").
		Preload("CustomerOrder")
}

// FindByID loads an order with its items, product sources and customer order
func (r *GormFulfillmentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.FulfillmentOrder, error) {
	var model models.FulfillmentOrderModel
	if err := r.withAssociations(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.NewNotFoundError("Fulfillment order", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindStatus reads the order's committed status without taking a lock
func (r *GormFulfillmentOrderRepository) FindStatus(ctx context.Context, id uuid.UUID) (fulfillment.Status, error) {
	var model models.FulfillmentOrderModel
	if err := r.db.WithContext(ctx).
		Select("status").
		Take(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fulfillment.NewNotFoundError("Fulfillment order", id)
		}
		return "", err
	}
	return fulfillment.Status(model.Status), nil
}

// FindByIDForUpdate loads an order under SELECT ... FOR UPDATE. The lock is
// only taken on the order row; associations are read without locking.
func (r *GormFulfillmentOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.FulfillmentOrder, error) {
	var model models.FulfillmentOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.NewNotFoundError("Fulfillment order", id)
		}
		return nil, err
	}

	if err := r.loadAssociations(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormFulfillmentOrderRepository) loadAssociations(ctx context.Context, model *models.FulfillmentOrderModel) error {
	if err := r.db.WithContext(ctx).
		Preload("ProductSource").
		Where("fulfillment_order_id = ?", model.ID).
		Order("line_no ASC").
		Find(&model.Items).Error; err != nil {
		return fmt.Errorf("failed to load fulfillment items: %w", err)
	}

	var customerOrder models.CustomerOrderModel
	err := r.db.WithContext(ctx).First(&customerOrder, "id = ?", model.CustomerOrderID).Error
	switch {
	case err == nil:
		model.CustomerOrder = &customerOrder
	case errors.Is(err, gorm.ErrRecordNotFound):
		model.CustomerOrder = nil
	default:
		return fmt.Errorf("failed to load customer order: %w", err)
	}
	return nil
}

// ExistsByCustomerOrderID reports whether a fulfillment order already exists for the customer order
func (r *GormFulfillmentOrderRepository) ExistsByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FulfillmentOrderModel{}).
		Where("customer_order_id = ?", customerOrderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists orders with their items and customer order
func (r *GormFulfillmentOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.FulfillmentOrder, error) {
	var rows []models.FulfillmentOrderModel
	query := r.applyFilter(r.withAssociations(ctx).Model(&models.FulfillmentOrderModel{}), filter)
	query = r.applyPagination(query, filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]fulfillment.FulfillmentOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormFulfillmentOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FulfillmentOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns the number of orders in each status
func (r *GormFulfillmentOrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.FulfillmentOrderModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create inserts a new order and its items
func (r *GormFulfillmentOrderRepository) Create(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	model := models.FulfillmentOrderModelFromDomain(order)
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create fulfillment order: %w", err)
	}
	if len(model.Items) > 0 {
		if err := db.Omit(clause.Associations).Create(&model.Items).Error; err != nil {
			return fmt.Errorf("failed to create fulfillment items: %w", err)
		}
	}
	return nil
}

// SaveWithLock writes the mutable columns only if the stored version still
// equals order.Version. On success order.Version is incremented.
func (r *GormFulfillmentOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.FulfillmentOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":             string(order.Status),
			"supplier_order_id":  order.SupplierOrderID,
			"tracking_number":    order.TrackingNumber,
			"carrier":            order.Carrier,
			"tracking_url":       order.TrackingURL,
			"placed_at":          order.PlacedAt,
			"shipped_at":         order.ShippedAt,
			"delivered_at":       order.DeliveredAt,
			"actual_delivery_at": order.ActualDeliveryAt,
			"issue_description":  order.IssueDescription,
			"version":            order.Version + 1,
			"updated_at":         order.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.conflictFor(ctx, order)
	}
	order.IncrementVersion()
	return nil
}

func (r *GormFulfillmentOrderRepository) conflictFor(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	var current models.FulfillmentOrderModel
	err := r.db.WithContext(ctx).Select("version").First(&current, "id = ?", order.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fulfillment.NewNotFoundError("Fulfillment order", order.ID)
	}
	if err != nil {
		return err
	}
	return fulfillment.NewConflictingWriteError(order.ID, order.Version, current.Version)
}

func (r *GormFulfillmentOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters[fulfillment.FilterKeyStatus]; ok {
		switch v := status.(type) {
		case fulfillment.Status:
			query = query.Where("status = ?", string(v))
		case string:
			query = query.Where("status = ?", v)
		}
	}
	return query
}

func (r *GormFulfillmentOrderRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	sortField := ValidateSortField(filter.OrderBy, FulfillmentOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder).Order("id " + sortOrder)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// Ensure GormFulfillmentOrderRepository implements FulfillmentOrderRepository
var _ fulfillment.FulfillmentOrderRepository = (*GormFulfillmentOrderRepository)(nil)
