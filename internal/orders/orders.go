// Package orders exposes persisted orders to the reconciliation handlers.
package orders

import (
	"context"
	"sync"

	"fillScope/internal/model"
)

// Store implements lookupOrdersByIds. Missing ids are left out of the result
// and result order is unspecified.
type Store interface {
	OrdersByIDs(ctx context.Context, ids []string) ([]model.StoredOrder, error)
}

// Memory is an in-memory Store.
type Memory struct {
	mu     sync.RWMutex
	orders map[string]model.StoredOrder
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{orders: make(map[string]model.StoredOrder)}
}

// Put inserts or replaces an order.
func (m *Memory) Put(order model.StoredOrder) {
	m.mu.Lock()
	m.orders[order.ID] = order
	m.mu.Unlock()
}

func (m *Memory) OrdersByIDs(_ context.Context, ids []string) ([]model.StoredOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.StoredOrder, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if order, ok := m.orders[id]; ok {
			out = append(out, order)
		}
	}
	return out, nil
}

// Index keys orders by id.
func Index(found []model.StoredOrder) map[string]model.StoredOrder {
	out := make(map[string]model.StoredOrder, len(found))
	for _, order := range found {
		out[order.ID] = order
	}
	return out
}
