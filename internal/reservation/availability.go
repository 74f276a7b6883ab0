package reservation

import (
	"context"
	"errors"

	"github.com/avros/inventory-reservation/internal/model"
)

// ErrUnknownItem is returned by StockOracle implementations when no on-hand
// quantity is recorded for the item at all.  Reserving an item the oracle
// has never heard of is a caller bug, not an out-of-stock condition, so the
// engine propagates this loudly instead of reporting zero availability.
var ErrUnknownItem = errors.New("unknown inventory item")

// StockOracle supplies the committed on-hand quantity for an item.  The
// value must reflect non-reserved stock; the engine treats it as ground
// truth at call time.  Implementations are provided by the embedding
// application (see internal/inventory).
type StockOracle interface {
	OnHand(ctx context.Context, item model.Item) (int, error)
}

// Calculator computes true remaining availability for an item: on-hand
// quantity minus the sum of active reservation quantities, clamped at zero.
// It is read-only and side-effect free.
type Calculator struct {
	store Store
	stock StockOracle
}

// NewCalculator returns a Calculator over the given store and oracle.
func NewCalculator(store Store, stock StockOracle) *Calculator {
	return &Calculator{store: store, stock: stock}
}

// Available returns how many units of the item can still be promised.  Both
// the oracle and the store are consulted fresh on every call; the result is
// never cached because other sessions change both sides between calls.
// Oracle and store failures propagate unchanged so that an infrastructure
// fault is never mistaken for "no stock".
func (c *Calculator) Available(ctx context.Context, item model.Item) (int, error) {
	onHand, err := c.stock.OnHand(ctx, item)
	if err != nil {
		return 0, err
	}
	active, err := c.store.ListActiveByItem(ctx, item)
	if err != nil {
		return 0, err
	}
	reserved := 0
	for _, r := range active {
		reserved += r.Quantity
	}
	avail := onHand - reserved
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}
