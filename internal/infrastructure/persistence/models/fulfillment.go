package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/fulfillment"
)

// CustomerOrderModel is the persistence model for the customer-facing order.
// Checkout owns the row; fulfillment writes only the status projection.
type CustomerOrderModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderNumber           string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status                string    `gorm:"type:varchar(30);not null;index"`
	CustomerName          string    `gorm:"type:varchar(200);not null;default:''"`
	CustomerEmail         string    `gorm:"type:varchar(200);not null;default:''"`
	CustomerPhone         string    `gorm:"type:varchar(50);not null;default:''"`
	ShippingRecipientName string    `gorm:"type:varchar(200);not null;default:''"`
	ShippingStreet1       string    `gorm:"type:varchar(255);not null;default:''"`
	ShippingStreet2       string    `gorm:"type:varchar(255);not null;default:''"`
	ShippingCity          string    `gorm:"type:varchar(100);not null;default:''"`
	ShippingState         string    `gorm:"type:varchar(100);not null;default:''"`
	ShippingPostalCode    string    `gorm:"type:varchar(20);not null;default:''"`
	ShippingCountry       string    `gorm:"type:varchar(2);not null;default:''"`
	ShippingPhone         string    `gorm:"type:varchar(50);not null;default:''"`
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
	CancelledAt           *time.Time
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerOrderModel) TableName() string {
	return "customer_orders"
}

// ToDomain converts the persistence model to a domain CustomerOrder
func (m *CustomerOrderModel) ToDomain() *fulfillment.CustomerOrder {
	return &fulfillment.CustomerOrder{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		Status:      m.Status,
		Customer: fulfillment.CustomerContact{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		ShippingAddress: fulfillment.ShippingAddress{
			RecipientName: m.ShippingRecipientName,
			Street1:       m.ShippingStreet1,
			Street2:       m.ShippingStreet2,
			City:          m.ShippingCity,
			State:         m.ShippingState,
			PostalCode:    m.ShippingPostalCode,
			Country:       m.ShippingCountry,
			Phone:         m.ShippingPhone,
		},
		ShippedAt:   m.ShippedAt,
		DeliveredAt: m.DeliveredAt,
		CancelledAt: m.CancelledAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CustomerOrder
func (m *CustomerOrderModel) FromDomain(o *fulfillment.CustomerOrder) {
	m.ID = o.ID
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.CustomerName = o.Customer.Name
	m.CustomerEmail = o.Customer.Email
	m.CustomerPhone = o.Customer.Phone
	m.ShippingRecipientName = o.ShippingAddress.RecipientName
	m.ShippingStreet1 = o.ShippingAddress.Street1
	m.ShippingStreet2 = o.ShippingAddress.Street2
	m.ShippingCity = o.ShippingAddress.City
	m.ShippingState = o.ShippingAddress.State
	m.ShippingPostalCode = o.ShippingAddress.PostalCode
	m.ShippingCountry = o.ShippingAddress.Country
	m.ShippingPhone = o.ShippingAddress.Phone
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.UpdatedAt = o.UpdatedAt
}

// CustomerOrderModelFromDomain creates a new persistence model from a domain CustomerOrder
func CustomerOrderModelFromDomain(o *fulfillment.CustomerOrder) *CustomerOrderModel {
	m := &CustomerOrderModel{}
	m.FromDomain(o)
	return m
}

// ShipmentModel is the persistence model for a customer order's shipment
type ShipmentModel struct {
	BaseModel
	CustomerOrderID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TrackingNumber   string    `gorm:"type:varchar(100);not null;default:''"`
	Carrier          string    `gorm:"type:varchar(100);not null;default:''"`
	TrackingURL      string    `gorm:"type:varchar(500);not null;default:''"`
	ActualDeliveryAt *time.Time
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *fulfillment.Shipment {
	return &fulfillment.Shipment{
		ID:               m.ID,
		CustomerOrderID:  m.CustomerOrderID,
		TrackingNumber:   m.TrackingNumber,
		Carrier:          m.Carrier,
		TrackingURL:      m.TrackingURL,
		ActualDeliveryAt: m.ActualDeliveryAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ShipmentModelFromDomain creates a new persistence model from a domain Shipment
func ShipmentModelFromDomain(s *fulfillment.Shipment) *ShipmentModel {
	return &ShipmentModel{
		BaseModel: BaseModel{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		},
		CustomerOrderID:  s.CustomerOrderID,
		TrackingNumber:   s.TrackingNumber,
		Carrier:          s.Carrier,
		TrackingURL:      s.TrackingURL,
		ActualDeliveryAt: s.ActualDeliveryAt,
	}
}

// ProductSourceModel binds a product to a supplier SKU
type ProductSourceModel struct {
	BaseModel
	ProductName        string `gorm:"type:varchar(200);not null"`
	SupplierName       string `gorm:"type:varchar(200);not null;default:''"`
	SupplierSKU        string `gorm:"column:supplier_sku;type:varchar(100);not null;default:''"`
	SupplierProductURL string `gorm:"column:supplier_product_url;type:varchar(500);not null;default:''"`
	SourceStatus       string `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	InventoryStatus    string `gorm:"type:varchar(20);not null;default:'IN_STOCK'"`
}

// TableName returns the table name for GORM
func (ProductSourceModel) TableName() string {
	return "product_sources"
}

// ToDomain converts the persistence model to a domain ProductSource
func (m *ProductSourceModel) ToDomain() *fulfillment.ProductSource {
	return &fulfillment.ProductSource{
		ID:                 m.ID,
		ProductName:        m.ProductName,
		SupplierName:       m.SupplierName,
		SupplierSKU:        m.SupplierSKU,
		SupplierProductURL: m.SupplierProductURL,
		SourceStatus:       fulfillment.SourceStatus(m.SourceStatus),
		InventoryStatus:    fulfillment.InventoryStatus(m.InventoryStatus),
	}
}

// FulfillmentItemModel is one supplier line of a fulfillment order
type FulfillmentItemModel struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primary_key"`
	FulfillmentOrderID uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineNo             int                 `gorm:"not null"`
	ProductName        string              `gorm:"type:varchar(200);not null"`
	SupplierSKU        string              `gorm:"column:supplier_sku;type:varchar(100);not null;default:''"`
	Quantity           int                 `gorm:"not null"`
	UnitCost           decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	TotalCost          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ProductSourceID    *uuid.UUID          `gorm:"type:uuid;index"`
	ProductSource      *ProductSourceModel `gorm:"foreignKey:ProductSourceID;references:ID"`
}

// TableName returns the table name for GORM
func (FulfillmentItemModel) TableName() string {
	return "fulfillment_items"
}

// ToDomain converts the persistence model to a domain FulfillmentItem
func (m *FulfillmentItemModel) ToDomain() fulfillment.FulfillmentItem {
	item := fulfillment.FulfillmentItem{
		ID:                 m.ID,
		FulfillmentOrderID: m.FulfillmentOrderID,
		LineNo:             m.LineNo,
		ProductName:        m.ProductName,
		SupplierSKU:        m.SupplierSKU,
		Quantity:           m.Quantity,
		UnitCost:           m.UnitCost,
		TotalCost:          m.TotalCost,
		ProductSourceID:    m.ProductSourceID,
	}
	if m.ProductSource != nil {
		item.ProductSource = m.ProductSource.ToDomain()
	}
	return item
}

// FulfillmentItemModelFromDomain creates a new persistence model from a domain FulfillmentItem.
// The product source association is never written through the item.
func FulfillmentItemModelFromDomain(i *fulfillment.FulfillmentItem) FulfillmentItemModel {
	return FulfillmentItemModel{
		ID:                 i.ID,
		FulfillmentOrderID: i.FulfillmentOrderID,
		LineNo:             i.LineNo,
		ProductName:        i.ProductName,
		SupplierSKU:        i.SupplierSKU,
		Quantity:           i.Quantity,
		UnitCost:           i.UnitCost,
		TotalCost:          i.TotalCost,
		ProductSourceID:    i.ProductSourceID,
	}
}

// FulfillmentOrderModel is the persistence model for the FulfillmentOrder aggregate root
type FulfillmentOrderModel struct {
	AggregateModel
	CustomerOrderID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Status           string          `gorm:"type:varchar(30);not null;index"`
	SupplierOrderID  string          `gorm:"type:varchar(100);not null;default:''"`
	TrackingNumber   string          `gorm:"type:varchar(100);not null;default:''"`
	Carrier          string          `gorm:"type:varchar(100);not null;default:''"`
	TrackingURL      string          `gorm:"type:varchar(500);not null;default:''"`
	PlacedAt         *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	ActualDeliveryAt *time.Time
	IssueDescription string          `gorm:"type:text;not null;default:''"`
	Currency         string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ShippingCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// Associations
	Items         []FulfillmentItemModel `gorm:"foreignKey:FulfillmentOrderID;references:ID"`
	CustomerOrder *CustomerOrderModel    `gorm:"foreignKey:CustomerOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (FulfillmentOrderModel) TableName() string {
	return "fulfillment_orders"
}

// ToDomain converts the persistence model to a domain FulfillmentOrder
func (m *FulfillmentOrderModel) ToDomain() *fulfillment.FulfillmentOrder {
	order := &fulfillment.FulfillmentOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerOrderID:   m.CustomerOrderID,
		Status:            fulfillment.Status(m.Status),
		SupplierOrderID:   m.SupplierOrderID,
		TrackingNumber:    m.TrackingNumber,
		Carrier:           m.Carrier,
		TrackingURL:       m.TrackingURL,
		PlacedAt:          m.PlacedAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		ActualDeliveryAt:  m.ActualDeliveryAt,
		IssueDescription:  m.IssueDescription,
		Currency:          m.Currency,
		ShippingCost:      m.ShippingCost,
		TotalCost:         m.TotalCost,
		Items:             make([]fulfillment.FulfillmentItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	if m.CustomerOrder != nil {
		order.CustomerOrder = m.CustomerOrder.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain FulfillmentOrder.
// The customer order association is read-only and never copied.
func (m *FulfillmentOrderModel) FromDomain(o *fulfillment.FulfillmentOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CustomerOrderID = o.CustomerOrderID
	m.Status = string(o.Status)
	m.SupplierOrderID = o.SupplierOrderID
	m.TrackingNumber = o.TrackingNumber
	m.Carrier = o.Carrier
	m.TrackingURL = o.TrackingURL
	m.PlacedAt = o.PlacedAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.ActualDeliveryAt = o.ActualDeliveryAt
	m.IssueDescription = o.IssueDescription
	m.Currency = o.Currency
	m.ShippingCost = o.ShippingCost
	m.TotalCost = o.TotalCost
	m.Items = make([]FulfillmentItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = FulfillmentItemModelFromDomain(&o.Items[i])
	}
}

// FulfillmentOrderModelFromDomain creates a new persistence model from a domain FulfillmentOrder
func FulfillmentOrderModelFromDomain(o *fulfillment.FulfillmentOrder) *FulfillmentOrderModel {
	m := &FulfillmentOrderModel{}
	m.FromDomain(o)
	return m
}
