package fulfillment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierOrderPayload is what gets handed to the supplier, manually or by
// an integration, to place the order.
type SupplierOrderPayload struct {
	FulfillmentOrderID uuid.UUID             `json:"fulfillment_order_id"`
	OrderNumber        string                `json:"order_number"`
	Customer           SupplierCustomer      `json:"customer"`
	ShippingAddress    SupplierAddress       `json:"shipping_address"`
	Items              []SupplierPayloadItem `json:"items"`
	Currency           string                `json:"currency"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	ShippingCost       decimal.Decimal       `json:"shipping_cost"`
	TotalCost          decimal.Decimal       `json:"total_cost"`
}

// SupplierCustomer is the contact block of the payload
type SupplierCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// SupplierAddress is the ship-to block of the payload
type SupplierAddress struct {
	RecipientName string `json:"recipient_name"`
	Street1       string `json:"street1"`
	Street2       string `json:"street2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone,omitempty"`
}

// SupplierPayloadItem is one line the supplier must ship
type SupplierPayloadItem struct {
	LineNo             int             `json:"line_no"`
	ProductName        string          `json:"product_name"`
	SupplierSKU        string          `json:"supplier_sku"`
	SupplierName       string          `json:"supplier_name,omitempty"`
	SupplierProductURL string          `json:"supplier_product_url,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	TotalCost          decimal.Decimal `json:"total_cost"`
}

// PrepareSupplierPayload projects the order into a supplier payload without mutating it
func PrepareSupplierPayload(order *FulfillmentOrder) SupplierOrderPayload {
	payload := SupplierOrderPayload{
		FulfillmentOrderID: order.ID,
		Items:              make([]SupplierPayloadItem, 0, len(order.Items)),
		Currency:           order.Currency,
		Subtotal:           order.Subtotal(),
		ShippingCost:       order.ShippingCost,
		TotalCost:          order.TotalCost,
	}

	if co := order.CustomerOrder; co != nil {
		payload.OrderNumber = co.OrderNumber
		payload.Customer = SupplierCustomer{
			Name:  co.Customer.Name,
			Email: co.Customer.Email,
			Phone: co.Customer.Phone,
		}
		addr := co.ShippingAddress
		payload.ShippingAddress = SupplierAddress{
			RecipientName: addr.RecipientName,
			Street1:       addr.Street1,
			Street2:       addr.Street2,
			City:          addr.City,
			State:         addr.State,
			PostalCode:    addr.PostalCode,
			Country:       addr.Country,
			Phone:         addr.Phone,
		}
		if payload.ShippingAddress.RecipientName == "" {
			payload.ShippingAddress.RecipientName = co.Customer.Name
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		line := SupplierPayloadItem{
			LineNo:      item.LineNo,
			ProductName: item.ProductName,
			SupplierSKU: item.ResolvedSupplierSKU(),
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			TotalCost:   item.TotalCost,
		}
		if src := item.ProductSource; src != nil {
			line.SupplierName = src.SupplierName
			line.SupplierProductURL = src.SupplierProductURL
			if line.ProductName == "" {
				line.ProductName = src.ProductName
			}
		}
		payload.Items = append(payload.Items, line)
	}

	return payload
}
