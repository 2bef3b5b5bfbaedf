package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
)

// Memory is an in-process Store. Safe for concurrent use. Everything is
// lost on process exit; intended for tests and ephemeral chat sessions.
type Memory struct {
	mu        sync.RWMutex
	catalogs  map[string][]inventory.CatalogItem
	orders    map[string]inventory.OrderRecord
	orderSeq  []string
	histories map[string][]llm.Message
	sessSeq   []string
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		catalogs:  make(map[string][]inventory.CatalogItem),
		orders:    make(map[string]inventory.OrderRecord),
		histories: make(map[string][]llm.Message),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) ListCatalog(_ context.Context, scope string) ([]inventory.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]inventory.CatalogItem, len(m.catalogs[scope]))
	copy(items, m.catalogs[scope])
	return items, nil
}

func (m *Memory) UpsertItem(_ context.Context, scope string, item inventory.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.catalogs[scope]
	for i, it := range items {
		if it.SKU == item.SKU {
			items[i] = item
			return nil
		}
	}
	m.catalogs[scope] = append(items, item)
	return nil
}

func (m *Memory) SetStock(_ context.Context, scope, sku string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.catalogs[scope]
	for i := range items {
		if items[i].SKU == sku {
			items[i].AvailableStock = stock
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", sku, ErrNotFound)
}

func (m *Memory) DecrementStock(_ context.Context, scope, sku string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.catalogs[scope]
	for i := range items {
		if items[i].SKU != sku {
			continue
		}
		if items[i].AvailableStock < qty {
			return fmt.Errorf("item %s qty %d: %w", sku, qty, ErrInsufficientStock)
		}
		items[i].AvailableStock -= qty
		return nil
	}
	return fmt.Errorf("item %s: %w", sku, ErrNotFound)
}

func (m *Memory) CreateOrder(_ context.Context, rec inventory.OrderRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = inventory.OrderPending
	}
	m.orders[rec.ID] = rec
	m.orderSeq = append(m.orderSeq, rec.ID)
	return rec.ID, nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (inventory.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.orders[id]
	if !ok {
		return rec, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (m *Memory) ListOrders(_ context.Context) ([]inventory.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Newest first, matching the SQLite implementation.
	orders := make([]inventory.OrderRecord, 0, len(m.orderSeq))
	for i := len(m.orderSeq) - 1; i >= 0; i-- {
		orders = append(orders, m.orders[m.orderSeq[i]])
	}
	return orders, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, status inventory.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if !rec.Status.CanTransitionTo(status) {
		return fmt.Errorf("order %s %s -> %s: %w", id, rec.Status, status, ErrInvalidTransition)
	}
	rec.Status = status
	m.orders[id] = rec
	return nil
}

func (m *Memory) SaveHistory(_ context.Context, sessionID string, history []llm.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.histories[sessionID]; !ok {
		m.sessSeq = append(m.sessSeq, sessionID)
	} else {
		m.touchLocked(sessionID)
	}
	saved := make([]llm.Message, len(history))
	copy(saved, history)
	m.histories[sessionID] = saved
	return nil
}

func (m *Memory) LoadHistory(_ context.Context, sessionID string) ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]llm.Message, len(m.histories[sessionID]))
	copy(history, m.histories[sessionID])
	return history, nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, sessionID)
	for i, id := range m.sessSeq {
		if id == sessionID {
			m.sessSeq = append(m.sessSeq[:i], m.sessSeq[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ListSessions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Most recently updated first.
	ids := make([]string, 0, len(m.sessSeq))
	for i := len(m.sessSeq) - 1; i >= 0; i-- {
		ids = append(ids, m.sessSeq[i])
	}
	return ids, nil
}

// touchLocked moves a session to the end of the recency order. Caller
// holds the write lock.
func (m *Memory) touchLocked(sessionID string) {
	for i, id := range m.sessSeq {
		if id == sessionID {
			m.sessSeq = append(m.sessSeq[:i], m.sessSeq[i+1:]...)
			m.sessSeq = append(m.sessSeq, sessionID)
			return
		}
	}
}
