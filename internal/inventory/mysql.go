// Package inventory provides the stock oracle implementations consumed by
// the reservation engine, plus the write operations the embedding
// application needs to seed stock and convert completed holds into real
// deductions.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
	"github.com/avros/inventory-reservation/internal/reservation"
)

// StockLevel is one row of committed on-hand stock for an item.
type StockLevel struct {
	Item      model.Item `json:"item"`
	OnHand    int        `json:"on_hand"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StockRepo provides data access to the stock_levels table and implements
// reservation.StockOracle.  On-hand values reflect committed stock only;
// active holds live in the reservations table and are netted out by the
// availability calculator, never here.
//
// Expected schema:
//
//	CREATE TABLE stock_levels (
//	    product_id  VARCHAR(64)  NOT NULL,
//	    variant_id  VARCHAR(64)  NOT NULL DEFAULT '',
//	    location_id VARCHAR(64)  NOT NULL,
//	    on_hand     INT UNSIGNED NOT NULL,
//	    updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
//	                ON UPDATE CURRENT_TIMESTAMP,
//	    PRIMARY KEY (product_id, variant_id, location_id)
//	);
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo returns a StockRepo bound to the given database handle.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// OnHand returns the committed quantity for the item.  An item with no row
// at all is a caller-contract violation and maps to
// reservation.ErrUnknownItem; any other failure propagates unchanged.
func (r *StockRepo) OnHand(ctx context.Context, item model.Item) (int, error) {
	const q = `SELECT on_hand FROM stock_levels
	           WHERE product_id = ? AND variant_id = ? AND location_id = ?`
	var onHand int
	err := r.db.QueryRowContext(ctx, q, item.ProductID, item.VariantID, item.LocationID).Scan(&onHand)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, reservation.ErrUnknownItem
	}
	if err != nil {
		return 0, err
	}
	return onHand, nil
}

// SetOnHand creates or replaces the committed quantity for the item.
func (r *StockRepo) SetOnHand(ctx context.Context, item model.Item, onHand int) error {
	if onHand < 0 {
		return errors.New("on-hand quantity cannot be negative")
	}
	const q = `INSERT INTO stock_levels (product_id, variant_id, location_id, on_hand)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE on_hand = VALUES(on_hand)`
	_, err := r.db.ExecContext(ctx, q, item.ProductID, item.VariantID, item.LocationID, onHand)
	return err
}

// Decrement subtracts quantity from the item's on-hand stock, refusing to
// go below zero.  The guard lives in the WHERE clause so the check and the
// write are one atomic statement.  It reports whether the deduction was
// applied.  Used when a completed reservation converts into a committed
// deduction.
func (r *StockRepo) Decrement(ctx context.Context, item model.Item, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, errors.New("decrement quantity must be positive")
	}
	const q = `UPDATE stock_levels SET on_hand = on_hand - ?
	           WHERE product_id = ? AND variant_id = ? AND location_id = ? AND on_hand >= ?`
	res, err := r.db.ExecContext(ctx, q, quantity, item.ProductID, item.VariantID, item.LocationID, quantity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByLocation returns all stock levels for a location, ordered by
// product and variant for deterministic output.
func (r *StockRepo) ListByLocation(ctx context.Context, locationID string) ([]StockLevel, error) {
	const q = `SELECT product_id, variant_id, location_id, on_hand, updated_at
	           FROM stock_levels
	           WHERE location_id = ?
	           ORDER BY product_id, variant_id`
	rows, err := r.db.QueryContext(ctx, q, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StockLevel, 0)
	for rows.Next() {
		var lv StockLevel
		if err := rows.Scan(&lv.Item.ProductID, &lv.Item.VariantID, &lv.Item.LocationID, &lv.OnHand, &lv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
