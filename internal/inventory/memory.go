package inventory

import (
	"context"
	"sync"

	"github.com/avros/inventory-reservation/internal/model"
	"github.com/avros/inventory-reservation/internal/reservation"
)

// MemoryStock is a map-backed stock oracle for single-process deployments
// and local development.  Items must be seeded with Set before they can be
// reserved; asking for an unseeded item returns
// reservation.ErrUnknownItem, matching the MySQL-backed oracle.
type MemoryStock struct {
	mu     sync.RWMutex
	onHand map[model.Item]int
}

// NewMemoryStock returns an empty MemoryStock.
func NewMemoryStock() *MemoryStock {
	return &MemoryStock{onHand: make(map[model.Item]int)}
}

// OnHand implements reservation.StockOracle.
func (m *MemoryStock) OnHand(ctx context.Context, item model.Item) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qty, ok := m.onHand[item]
	if !ok {
		return 0, reservation.ErrUnknownItem
	}
	return qty, nil
}

// Set records the committed on-hand quantity for the item.
func (m *MemoryStock) Set(item model.Item, onHand int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHand[item] = onHand
}

// Decrement subtracts quantity, refusing to go below zero.  It reports
// whether the deduction was applied.
func (m *MemoryStock) Decrement(item model.Item, quantity int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.onHand[item]
	if !ok || cur < quantity {
		return false
	}
	m.onHand[item] = cur - quantity
	return true
}
