package fulfillment

import "github.com/google/uuid"

// SourceStatus is the lifecycle of a supplier catalog binding
type SourceStatus string

const (
	SourceStatusActive       SourceStatus = "ACTIVE"
	SourceStatusDiscontinued SourceStatus = "DISCONTINUED"
	SourceStatusUnavailable  SourceStatus = "UNAVAILABLE"
)

// InventoryStatus is the supplier-reported stock state of a product source
type InventoryStatus string

const (
	InventoryStatusInStock    InventoryStatus = "IN_STOCK"
	InventoryStatusOutOfStock InventoryStatus = "OUT_OF_STOCK"
)

// ProductSource binds a sold product to a supplier's product and SKU
type ProductSource struct {
	ID                 uuid.UUID
	ProductName        string
	SupplierName       string
	SupplierSKU        string
	SupplierProductURL string
	SourceStatus       SourceStatus
	InventoryStatus    InventoryStatus
}

// IsDiscontinued returns true when the supplier no longer carries the product
func (p *ProductSource) IsDiscontinued() bool {
	return p.SourceStatus == SourceStatusDiscontinued
}

// IsUnavailable returns true when the supplier temporarily cannot supply the product
func (p *ProductSource) IsUnavailable() bool {
	return p.SourceStatus == SourceStatusUnavailable
}

// IsOutOfStock returns true when the supplier reports no stock
func (p *ProductSource) IsOutOfStock() bool {
	return p.InventoryStatus == InventoryStatusOutOfStock
}
