// Package storage provides persistence for catalogs, orders, and
// conversation history.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interfaces
// - Allows swapping between memory and SQLite without API changes
// - Stock arithmetic guarded at the store so order confirmation stays atomic

package storage

import (
	"context"
	"errors"

	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
)

var (
	// ErrNotFound is returned when a catalog item, order, or session does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned by DecrementStock when available
	// stock does not cover the quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition is returned for disallowed order status changes.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// CatalogStore reads and mutates the product catalog. A scope key isolates
// one chatbot configuration's catalog from another's.
type CatalogStore interface {
	// ListCatalog returns the current catalog for a scope, in insertion
	// order. Empty slice (not nil) when the scope has no items.
	ListCatalog(ctx context.Context, scope string) ([]inventory.CatalogItem, error)

	// UpsertItem inserts or replaces an item keyed by SKU within the scope.
	UpsertItem(ctx context.Context, scope string, item inventory.CatalogItem) error

	// SetStock sets the absolute stock level of an item.
	SetStock(ctx context.Context, scope, sku string, stock int) error

	// DecrementStock atomically subtracts qty if and only if available
	// stock covers it; otherwise ErrInsufficientStock.
	DecrementStock(ctx context.Context, scope, sku string, qty int) error
}

// OrderStore persists order records.
type OrderStore interface {
	// CreateOrder persists the record and returns its identity. A missing
	// ID is assigned.
	CreateOrder(ctx context.Context, rec inventory.OrderRecord) (string, error)

	// GetOrder loads one order by ID.
	GetOrder(ctx context.Context, id string) (inventory.OrderRecord, error)

	// ListOrders returns all orders, newest first.
	ListOrders(ctx context.Context) ([]inventory.OrderRecord, error)

	// UpdateOrderStatus applies a status transition, enforcing the
	// pending -> confirmed|rejected rule with ErrInvalidTransition.
	UpdateOrderStatus(ctx context.Context, id string, status inventory.OrderStatus) error
}

// ConversationStore persists ordered, append-only conversation history per
// session.
type ConversationStore interface {
	// SaveHistory saves the full history for a session.
	SaveHistory(ctx context.Context, sessionID string, history []llm.Message) error

	// LoadHistory loads history for a session. Returns empty slice (not
	// nil) for unknown sessions.
	LoadHistory(ctx context.Context, sessionID string) ([]llm.Message, error)

	// DeleteSession removes a session and its history.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessions lists session IDs, most recently updated first.
	ListSessions(ctx context.Context) ([]string, error)
}

// Store bundles all persistence used by the bot service and the CLI.
type Store interface {
	CatalogStore
	OrderStore
	ConversationStore
	Close() error
}
