// Package reservation implements the inventory reservation engine: a store
// of time-bounded holds, an availability calculator that nets active holds
// against on-hand stock, and the lifecycle operations used by a checkout
// workflow (reserve, complete, cancel, extend, expire-sweep).
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
)

// Sentinel errors shared by the store implementations.  Higher layers use
// errors.Is to distinguish expected races (a record that lost a transition
// race is reported as ErrInvalidTransition) from infrastructure failures,
// which are returned as-is.
var (
	// ErrDuplicateID is returned by Insert when a record with the same ID
	// already exists.  It should not happen with a real id generator but is
	// always checked.
	ErrDuplicateID = errors.New("reservation id already exists")

	// ErrNotFound is returned when no reservation with the given ID exists.
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidTransition is returned by UpdateStatus when the requested
	// status change is not legal from the record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotActive is returned by UpdateExpiry when the reservation is not
	// in ACTIVE status.
	ErrNotActive = errors.New("reservation is not active")
)

// Store holds reservation records and answers the queries needed by the
// availability calculator and the engine.  Implementations must enforce the
// state machine themselves so that two operations racing to transition the
// same record produce exactly one winner; the loser observes
// ErrInvalidTransition (or ErrNotActive for expiry updates).
//
// Records are never deleted.  Terminal reservations stay queryable by ID for
// audit history; a retention policy is the embedding application's concern.
type Store interface {
	// Insert adds a new ACTIVE record.  Fails with ErrDuplicateID when the
	// id is already present.
	Insert(ctx context.Context, r *model.Reservation) error

	// GetByID returns the record or ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Reservation, error)

	// ListActiveByItem returns all ACTIVE records for the item tuple.
	ListActiveByItem(ctx context.Context, item model.Item) ([]model.Reservation, error)

	// ListActiveBySession returns all ACTIVE records owned by the session.
	ListActiveBySession(ctx context.Context, sessionID string) ([]model.Reservation, error)

	// ListExpiredActive returns ACTIVE records with ExpiresAt strictly
	// before asOf.
	ListExpiredActive(ctx context.Context, asOf time.Time) ([]model.Reservation, error)

	// UpdateStatus transitions the record to next.  Fails with ErrNotFound
	// when the id is unknown and ErrInvalidTransition when the transition is
	// not legal from the current status.
	UpdateStatus(ctx context.Context, id string, next model.Status) error

	// UpdateExpiry replaces the record's ExpiresAt.  Only legal while the
	// record is ACTIVE; fails with ErrNotActive otherwise and ErrNotFound
	// when the id is unknown.
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
}
