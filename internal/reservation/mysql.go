package reservation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/avros/inventory-reservation/internal/model"
)

// MySQLStore is a Store backed by a relational table.  It is required for a
// multi-process deployment, where the conditional UPDATE below is what
// guarantees a single winner when two operations race to transition the
// same record.  All timestamps are stored and compared in UTC; the DSN must
// use parseTime=true&loc=UTC (see internal/database).
//
// Expected schema:
//
//	CREATE TABLE reservations (
//	    id          CHAR(36)     NOT NULL PRIMARY KEY,
//	    product_id  VARCHAR(64)  NOT NULL,
//	    variant_id  VARCHAR(64)  NOT NULL DEFAULT '',
//	    location_id VARCHAR(64)  NOT NULL,
//	    quantity    INT UNSIGNED NOT NULL,
//	    session_id  VARCHAR(128) NOT NULL,
//	    status      ENUM('ACTIVE','COMPLETED','EXPIRED','CANCELLED') NOT NULL,
//	    created_at  DATETIME     NOT NULL,
//	    expires_at  DATETIME     NOT NULL,
//	    KEY idx_item_status (product_id, variant_id, location_id, status),
//	    KEY idx_session (session_id)
//	);
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the given database handle.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

const mysqlDuplicateEntry = 1062

// Insert adds a new record.  A duplicate primary key is mapped to
// ErrDuplicateID; every other database error is returned unchanged.
func (s *MySQLStore) Insert(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (id, product_id, variant_id, location_id, quantity, session_id, status, created_at, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.Item.ProductID, r.Item.VariantID, r.Item.LocationID,
		r.Quantity, r.SessionID, string(r.Status),
		r.CreatedAt.UTC(), r.ExpiresAt.UTC(),
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicateID
	}
	return err
}

// GetByID returns the record or ErrNotFound.
func (s *MySQLStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, product_id, variant_id, location_id, quantity, session_id, status, created_at, expires_at
	           FROM reservations WHERE id = ?`
	var r model.Reservation
	var status string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.Item.ProductID, &r.Item.VariantID, &r.Item.LocationID,
		&r.Quantity, &r.SessionID, &status, &r.CreatedAt, &r.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	return &r, nil
}

// ListActiveByItem returns all ACTIVE records for the item tuple.
func (s *MySQLStore) ListActiveByItem(ctx context.Context, item model.Item) ([]model.Reservation, error) {
	const q = `SELECT id, product_id, variant_id, location_id, quantity, session_id, status, created_at, expires_at
	           FROM reservations
	           WHERE product_id = ? AND variant_id = ? AND location_id = ? AND status = 'ACTIVE'`
	return s.list(ctx, q, item.ProductID, item.VariantID, item.LocationID)
}

// ListActiveBySession returns all ACTIVE records for the session.
func (s *MySQLStore) ListActiveBySession(ctx context.Context, sessionID string) ([]model.Reservation, error) {
	const q = `SELECT id, product_id, variant_id, location_id, quantity, session_id, status, created_at, expires_at
	           FROM reservations
	           WHERE session_id = ? AND status = 'ACTIVE'`
	return s.list(ctx, q, sessionID)
}

// ListExpiredActive returns ACTIVE records whose expires_at is strictly
// before asOf.
func (s *MySQLStore) ListExpiredActive(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	const q = `SELECT id, product_id, variant_id, location_id, quantity, session_id, status, created_at, expires_at
	           FROM reservations
	           WHERE status = 'ACTIVE' AND expires_at < ?`
	return s.list(ctx, q, asOf.UTC())
}

func (s *MySQLStore) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var r model.Reservation
		var status string
		if err := rows.Scan(
			&r.ID, &r.Item.ProductID, &r.Item.VariantID, &r.Item.LocationID,
			&r.Quantity, &r.SessionID, &status, &r.CreatedAt, &r.ExpiresAt,
		); err != nil {
			return nil, err
		}
		r.Status = model.Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus transitions the record using a conditional UPDATE.  The
// status='ACTIVE' guard makes the check-and-set atomic at the row level:
// when a complete races the expiry sweep on the same id, whichever UPDATE
// commits first wins and the loser sees zero affected rows.
func (s *MySQLStore) UpdateStatus(ctx context.Context, id string, next model.Status) error {
	if !model.StatusActive.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = 'ACTIVE'`
	res, err := s.db.ExecContext(ctx, q, string(next), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// No row changed: distinguish a missing record from a lost race.
	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

// UpdateExpiry replaces expires_at while the record is ACTIVE, with the same
// conditional UPDATE pattern as UpdateStatus.
func (s *MySQLStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	const q = `UPDATE reservations SET expires_at = ? WHERE id = ? AND status = 'ACTIVE'`
	res, err := s.db.ExecContext(ctx, q, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotActive
}
