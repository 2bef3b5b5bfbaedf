// Package inventory provides the product catalog domain types and the fuzzy
// matcher that resolves free-text product mentions to catalog entries.
package inventory

import "fmt"

// CatalogItem is one product entry with its current stock level.
type CatalogItem struct {
	// ProductName is the display name matched against user queries.
	ProductName string `json:"product_name"`
	// SKU is unique within a catalog scope.
	SKU string `json:"sku"`
	// AvailableStock never goes below zero; it is decremented on confirmed
	// orders and adjusted by stock updates.
	AvailableStock int `json:"available_stock"`
	// Unit names the stock unit ("pcs", "kg", ...).
	Unit string `json:"unit"`
}

// OrderStatus is the lifecycle state of an order record.
type OrderStatus string

const (
	// OrderPending is the initial status of every order record.
	OrderPending OrderStatus = "pending"
	// OrderConfirmed means stock covered the requested quantity at
	// evaluation time.
	OrderConfirmed OrderStatus = "confirmed"
	// OrderRejected is a terminal operator decision.
	OrderRejected OrderStatus = "rejected"
)

// ParseOrderStatus parses a stored status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderRejected:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status: %q", s)
	}
}

// CanTransitionTo reports whether the status may move to next. Only
// pending -> confirmed and pending -> rejected are allowed; transitions are
// never reversed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderPending && (next == OrderConfirmed || next == OrderRejected)
}

// OrderRecord captures one resolved order intent. Created once per resolved
// intent; Status starts at pending unless stock covered the request
// immediately.
type OrderRecord struct {
	ID           string      `json:"id"`
	ProductName  string      `json:"product_name"`
	RequestedQty int         `json:"requested_qty"`
	// SourceQuery is the user utterance the order was resolved from.
	SourceQuery string      `json:"source_query"`
	Status      OrderStatus `json:"status"`
}
