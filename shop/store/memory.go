// Package store provides shop.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/openretail/shop-engine/shop"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	products    []shop.Product
	entries     []shop.Entry
	orders      []shop.Order
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{idempotency: make(map[string]bool)}
}

func (m *Memory) ReplaceProducts(_ context.Context, products []shop.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append([]shop.Product(nil), products...)
	return nil
}

func (m *Memory) LoadProducts(_ context.Context) ([]shop.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]shop.Product(nil), m.products...), nil
}

func (m *Memory) AppendEntry(_ context.Context, e shop.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.IdempotencyKey != "" && m.idempotency[e.IdempotencyKey] {
		return shop.ErrDuplicateIdempotencyKey
	}
	m.entries = append(m.entries, e)
	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) UpdateEntryStatus(_ context.Context, id int, status shop.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Status = status
			return nil
		}
	}
	return nil
}

func (m *Memory) LoadEntries(_ context.Context) ([]shop.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]shop.Entry(nil), m.entries...), nil
}

func (m *Memory) ReplaceOrders(_ context.Context, orders []shop.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append([]shop.Order(nil), orders...)
	return nil
}

func (m *Memory) LoadOrders(_ context.Context) ([]shop.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]shop.Order(nil), m.orders...), nil
}

var _ shop.Store = (*Memory)(nil)
