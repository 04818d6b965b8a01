package fulfillment

import (
	"fmt"
	"strings"
)

// ValidationResult reports whether an order is eligible for fulfillment.
// Errors block fulfillment, warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks fulfillment eligibility. It is independent of transition
// legality: a transition may be legal while the order carries warnings.
func Validate(order *FulfillmentOrder) ValidationResult {
	result := ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	switch order.Status {
	case StatusCancelled, StatusDelivered, StatusRefunded:
		result.addError("Order is already %s", strings.ToLower(string(order.Status)))
	}

	if len(order.Items) == 0 {
		result.addError("Order has no items to fulfill")
	}

	for i := range order.Items {
		item := &order.Items[i]
		label := itemLabel(item)

		if item.ResolvedSupplierSKU() == "" {
			result.addError("%s is missing a supplier SKU", label)
		}

		src := item.ProductSource
		if src == nil {
			continue
		}
		if src.IsDiscontinued() {
			result.addError("%s has been discontinued by the supplier", label)
		}
		if src.IsUnavailable() {
			result.addWarning("%s is currently unavailable from the supplier", label)
		}
		if src.IsOutOfStock() {
			result.addWarning("%s is out of stock at the supplier", label)
		}
	}

	if order.CustomerOrder == nil {
		result.addError("Shipping address is missing")
		result.addError("Customer email is missing")
	} else {
		if missing := order.CustomerOrder.ShippingAddress.MissingFields(); len(missing) > 0 {
			result.addError("Shipping address is incomplete: missing %s", strings.Join(missing, ", "))
		}
		if strings.TrimSpace(order.CustomerOrder.Customer.Email) == "" {
			result.addError("Customer email is missing")
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func itemLabel(item *FulfillmentItem) string {
	if item.ProductName != "" {
		return fmt.Sprintf("Item %d (%s)", item.LineNo, item.ProductName)
	}
	return fmt.Sprintf("Item %d", item.LineNo)
}
