package fulfillment

import (
	"fmt"
	"time"
)

// HistoryEntry is one derived step in a fulfillment order's lifecycle
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// BuildHistory derives the lifecycle from the persisted stage timestamps in
// fixed order. Skipped stages and ISSUE/CANCELLED excursions leave no trace.
func BuildHistory(order *FulfillmentOrder) []HistoryEntry {
	entries := make([]HistoryEntry, 0, 4)

	if !order.CreatedAt.IsZero() {
		entries = append(entries, HistoryEntry{
			Status:    StatusPending,
			Timestamp: order.CreatedAt,
			Note:      "Fulfillment order created",
		})
	}

	if order.PlacedAt != nil {
		entry := HistoryEntry{Status: StatusPlaced, Timestamp: *order.PlacedAt}
		if order.SupplierOrderID != "" {
			entry.Note = fmt.Sprintf("Supplier order %s", order.SupplierOrderID)
		}
		entries = append(entries, entry)
	}

	if order.ShippedAt != nil {
		entry := HistoryEntry{Status: StatusShipped, Timestamp: *order.ShippedAt}
		if order.TrackingNumber != "" {
			entry.Note = fmt.Sprintf("Tracking %s", order.TrackingNumber)
		}
		entries = append(entries, entry)
	}

	if order.DeliveredAt != nil {
		entries = append(entries, HistoryEntry{Status: StatusDelivered, Timestamp: *order.DeliveredAt})
	}

	return entries
}
