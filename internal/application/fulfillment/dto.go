package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/fulfillment"
)

// ==================== Requests ====================

// CreateFulfillmentOrderRequest creates a fulfillment order for a confirmed customer order
type CreateFulfillmentOrderRequest struct {
	CustomerOrderID uuid.UUID                    `json:"customer_order_id" binding:"required"`
	Currency        string                       `json:"currency" binding:"omitempty,len=3"`
	ShippingCost    decimal.Decimal              `json:"shipping_cost"`
	Items           []CreateFulfillmentItemInput `json:"items" binding:"dive"`
}

// CreateFulfillmentItemInput is one line of a create request
type CreateFulfillmentItemInput struct {
	ProductName     string          `json:"product_name" binding:"max=200"`
	SupplierSKU     string          `json:"supplier_sku" binding:"max=100"`
	Quantity        int             `json:"quantity" binding:"required,min=1"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ProductSourceID *uuid.UUID      `json:"product_source_id"`
}

// TransitionStatusRequest asks for a status change
type TransitionStatusRequest struct {
	Status           string `json:"status" binding:"required,fulfillment_status"`
	IssueDescription string `json:"issue_description" binding:"max=2000"`
	NotifyCustomer   *bool  `json:"notify_customer"`
	ExpectedVersion  *int   `json:"expected_version" binding:"omitempty,min=1"`
}

// AttachTrackingRequest records carrier details
type AttachTrackingRequest struct {
	TrackingNumber  string `json:"tracking_number" binding:"required,max=100"`
	Carrier         string `json:"carrier" binding:"max=100"`
	TrackingURL     string `json:"tracking_url" binding:"omitempty,url,max=500"`
	ExpectedVersion *int   `json:"expected_version" binding:"omitempty,min=1"`
}

// RecordSupplierOrderRequest records the supplier's order identifier
type RecordSupplierOrderRequest struct {
	SupplierOrderID string `json:"supplier_order_id" binding:"required,max=100"`
	ExpectedVersion *int   `json:"expected_version" binding:"omitempty,min=1"`
}

// FulfillmentOrderListFilter represents filter options for the order list
type FulfillmentOrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,fulfillment_status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Responses ====================

// FulfillmentOrderResponse is the detailed view of a fulfillment order
type FulfillmentOrderResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	CustomerOrderID    uuid.UUID                 `json:"customer_order_id"`
	Status             string                    `json:"status"`
	AllowedTransitions []string                  `json:"allowed_transitions"`
	SupplierOrderID    string                    `json:"supplier_order_id,omitempty"`
	TrackingNumber     string                    `json:"tracking_number,omitempty"`
	Carrier            string                    `json:"carrier,omitempty"`
	TrackingURL        string                    `json:"tracking_url,omitempty"`
	IssueDescription   string                    `json:"issue_description,omitempty"`
	Currency           string                    `json:"currency"`
	ShippingCost       decimal.Decimal           `json:"shipping_cost"`
	TotalCost          decimal.Decimal           `json:"total_cost"`
	Items              []FulfillmentItemResponse `json:"items"`
	CustomerOrder      *CustomerOrderResponse    `json:"customer_order,omitempty"`
	Shipment           *ShipmentResponse         `json:"shipment,omitempty"`
	PlacedAt           *time.Time                `json:"placed_at,omitempty"`
	ShippedAt          *time.Time                `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time                `json:"delivered_at,omitempty"`
	ActualDeliveryAt   *time.Time                `json:"actual_delivery_at,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
	Version            int                       `json:"version"`
}

// FulfillmentItemResponse is one line item
type FulfillmentItemResponse struct {
	ID            uuid.UUID              `json:"id"`
	LineNo        int                    `json:"line_no"`
	ProductName   string                 `json:"product_name"`
	SupplierSKU   string                 `json:"supplier_sku"`
	Quantity      int                    `json:"quantity"`
	UnitCost      decimal.Decimal        `json:"unit_cost"`
	TotalCost     decimal.Decimal        `json:"total_cost"`
	ProductSource *ProductSourceResponse `json:"product_source,omitempty"`
}

// ProductSourceResponse is the supplier catalog binding of an item
type ProductSourceResponse struct {
	ID                 uuid.UUID `json:"id"`
	SupplierName       string    `json:"supplier_name"`
	SupplierSKU        string    `json:"supplier_sku"`
	SupplierProductURL string    `json:"supplier_product_url,omitempty"`
	SourceStatus       string    `json:"source_status"`
	InventoryStatus    string    `json:"inventory_status"`
}

// CustomerOrderResponse is the owning order as seen by fulfillment staff
type CustomerOrderResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderNumber   string     `json:"order_number"`
	Status        string     `json:"status"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	ShippedAt     *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// ShipmentResponse is the shipment record
type ShipmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	TrackingNumber   string     `json:"tracking_number,omitempty"`
	Carrier          string     `json:"carrier,omitempty"`
	TrackingURL      string     `json:"tracking_url,omitempty"`
	ActualDeliveryAt *time.Time `json:"actual_delivery_at,omitempty"`
}

// FulfillmentOrderListItemResponse is the list view of a fulfillment order
type FulfillmentOrderListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerOrderID uuid.UUID       `json:"customer_order_id"`
	OrderNumber     string          `json:"order_number,omitempty"`
	Status          string          `json:"status"`
	SupplierOrderID string          `json:"supplier_order_id,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	ItemCount       int             `json:"item_count"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TrackingResponse is returned after tracking is attached
type TrackingResponse struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	TrackingURL    string `json:"tracking_url"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// FulfillmentOrderListResponse is the ListOrders result
type FulfillmentOrderListResponse struct {
	Orders     []FulfillmentOrderListItemResponse `json:"orders"`
	Pagination Pagination                         `json:"pagination"`
}

// ==================== Mapping ====================

// ToFulfillmentOrderResponse converts the domain aggregate into its detailed response
func ToFulfillmentOrderResponse(order *fulfillment.FulfillmentOrder, shipment *fulfillment.Shipment) FulfillmentOrderResponse {
	next := fulfillment.AllowedTransitions(order.Status)
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = s.String()
	}

	items := make([]FulfillmentItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = toFulfillmentItemResponse(&order.Items[i])
	}

	resp := FulfillmentOrderResponse{
		ID:                 order.ID,
		CustomerOrderID:    order.CustomerOrderID,
		Status:             order.Status.String(),
		AllowedTransitions: allowed,
		SupplierOrderID:    order.SupplierOrderID,
		TrackingNumber:     order.TrackingNumber,
		Carrier:            order.Carrier,
		TrackingURL:        order.TrackingURL,
		IssueDescription:   order.IssueDescription,
		Currency:           order.Currency,
		ShippingCost:       order.ShippingCost,
		TotalCost:          order.TotalCost,
		Items:              items,
		PlacedAt:           order.PlacedAt,
		ShippedAt:          order.ShippedAt,
		DeliveredAt:        order.DeliveredAt,
		ActualDeliveryAt:   order.ActualDeliveryAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
		Version:            order.Version,
	}

	if co := order.CustomerOrder; co != nil {
		resp.CustomerOrder = &CustomerOrderResponse{
			ID:            co.ID,
			OrderNumber:   co.OrderNumber,
			Status:        co.Status,
			CustomerName:  co.Customer.Name,
			CustomerEmail: co.Customer.Email,
			ShippedAt:     co.ShippedAt,
			DeliveredAt:   co.DeliveredAt,
			CancelledAt:   co.CancelledAt,
		}
	}

	if shipment != nil {
		resp.Shipment = &ShipmentResponse{
			ID:               shipment.ID,
			TrackingNumber:   shipment.TrackingNumber,
			Carrier:          shipment.Carrier,
			TrackingURL:      shipment.TrackingURL,
			ActualDeliveryAt: shipment.ActualDeliveryAt,
		}
	}

	return resp
}

func toFulfillmentItemResponse(item *fulfillment.FulfillmentItem) FulfillmentItemResponse {
	resp := FulfillmentItemResponse{
		ID:          item.ID,
		LineNo:      item.LineNo,
		ProductName: item.ProductName,
		SupplierSKU: item.ResolvedSupplierSKU(),
		Quantity:    item.Quantity,
		UnitCost:    item.UnitCost,
		TotalCost:   item.TotalCost,
	}
	if src := item.ProductSource; src != nil {
		resp.ProductSource = &ProductSourceResponse{
			ID:                 src.ID,
			SupplierName:       src.SupplierName,
			SupplierSKU:        src.SupplierSKU,
			SupplierProductURL: src.SupplierProductURL,
			SourceStatus:       string(src.SourceStatus),
			InventoryStatus:    string(src.InventoryStatus),
		}
	}
	return resp
}

// ToFulfillmentOrderListItemResponse converts the domain aggregate into its list response
func ToFulfillmentOrderListItemResponse(order *fulfillment.FulfillmentOrder) FulfillmentOrderListItemResponse {
	resp := FulfillmentOrderListItemResponse{
		ID:              order.ID,
		CustomerOrderID: order.CustomerOrderID,
		Status:          order.Status.String(),
		SupplierOrderID: order.SupplierOrderID,
		TrackingNumber:  order.TrackingNumber,
		ItemCount:       order.ItemCount(),
		TotalCost:       order.TotalCost,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.CustomerOrder != nil {
		resp.OrderNumber = order.CustomerOrder.OrderNumber
	}
	return resp
}
