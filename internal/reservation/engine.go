package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
)

// Caller-contract violations.  These indicate a bug in the calling workflow
// and fail loudly, unlike the benign outcomes (insufficient stock, lost
// races) which are reported through return values.
var (
	// ErrInvalidQuantity is returned when a requested quantity is zero or
	// negative.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidItem is returned when the item tuple is missing its product
	// or location identifier.
	ErrInvalidItem = errors.New("item requires product and location ids")

	// ErrMissingSession is returned when no session id is supplied.
	ErrMissingSession = errors.New("session id is required")

	// ErrInvalidDuration is returned when a hold duration or extension is
	// zero or negative.
	ErrInvalidDuration = errors.New("duration must be positive")
)

// DefaultHoldTTL is how long a reservation is held when the caller does not
// ask for a specific duration.
const DefaultHoldTTL = 15 * time.Minute

// ReserveRequest carries the inputs of a reservation attempt.  Duration
// zero means "use the engine's configured default TTL".
type ReserveRequest struct {
	Item      model.Item
	Quantity  int
	SessionID string
	Duration  time.Duration
}

// ReserveResult is the outcome of a reservation attempt.  Insufficient
// availability is an expected outcome, not an error: Reserved is false,
// Reservation is nil and Available carries the actual headroom so the
// caller can render "only N left" messaging.
type ReserveResult struct {
	Reserved    bool
	Reservation *model.Reservation
	Available   int
}

// Engine is the reservation lifecycle manager.  It owns no storage itself;
// it coordinates a Store and a Calculator while enforcing the availability
// and time invariants.  All methods are safe for concurrent use.
type Engine struct {
	store   Store
	calc    *Calculator
	clock   Clock
	ids     IDGenerator
	holdTTL time.Duration
	locks   *keyMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for deterministic expiry tests.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithIDGenerator overrides the reservation id generator.
func WithIDGenerator(g IDGenerator) Option { return func(e *Engine) { e.ids = g } }

// WithHoldTTL overrides the default hold duration.
func WithHoldTTL(d time.Duration) Option { return func(e *Engine) { e.holdTTL = d } }

// NewEngine builds an Engine over the given store and stock oracle.
func NewEngine(store Store, stock StockOracle, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		calc:    NewCalculator(store, stock),
		clock:   UTCClock(),
		ids:     UUIDGenerator(),
		holdTTL: DefaultHoldTTL,
		locks:   newKeyMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reserve attempts to hold req.Quantity units of req.Item for the session.
// The availability check and the insert happen under the item's lock, so
// two concurrent attempts for the same item cannot both see the same
// headroom and jointly over-commit: exactly one wins and the other observes
// the reduced availability.
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) (ReserveResult, error) {
	if req.Quantity <= 0 {
		return ReserveResult{}, ErrInvalidQuantity
	}
	if !req.Item.Valid() {
		return ReserveResult{}, ErrInvalidItem
	}
	if req.SessionID == "" {
		return ReserveResult{}, ErrMissingSession
	}
	if req.Duration < 0 {
		return ReserveResult{}, ErrInvalidDuration
	}
	ttl := req.Duration
	if ttl == 0 {
		ttl = e.holdTTL
	}

	unlock := e.locks.Lock(req.Item)
	defer unlock()

	avail, err := e.calc.Available(ctx, req.Item)
	if err != nil {
		return ReserveResult{}, err
	}
	if avail < req.Quantity {
		return ReserveResult{Available: avail}, nil
	}

	now := e.clock.Now()
	r := &model.Reservation{
		ID:        e.ids.NewID(),
		Item:      req.Item,
		Quantity:  req.Quantity,
		SessionID: req.SessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Status:    model.StatusActive,
	}
	if err := e.store.Insert(ctx, r); err != nil {
		return ReserveResult{}, err
	}
	return ReserveResult{Reserved: true, Reservation: r, Available: avail - req.Quantity}, nil
}

// Complete transitions the reservation to COMPLETED and reports whether the
// transition happened.  A missing record or one that already left ACTIVE is
// a benign race (false, nil), not a fault.  Completing signals that real
// stock should now be decremented; the decrement itself belongs to the
// embedding application.
func (e *Engine) Complete(ctx context.Context, id string) (bool, error) {
	return e.transition(ctx, id, model.StatusCompleted)
}

// Cancel transitions the reservation to CANCELLED, releasing the held
// quantity.  The release is implicit: cancelled records no longer count in
// the active sum used by the availability calculator.
func (e *Engine) Cancel(ctx context.Context, id string) (bool, error) {
	return e.transition(ctx, id, model.StatusCancelled)
}

func (e *Engine) transition(ctx context.Context, id string, next model.Status) (bool, error) {
	err := e.store.UpdateStatus(ctx, id, next)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
		return false, nil
	default:
		return false, err
	}
}

// Extend pushes the reservation's expiry out by extra and reports whether
// it happened.  Returns false for a missing or non-active reservation.  No
// upper bound is enforced here; capping cumulative extensions is a policy
// decision left to the embedding deployment.
func (e *Engine) Extend(ctx context.Context, id string, extra time.Duration) (bool, error) {
	if extra <= 0 {
		return false, ErrInvalidDuration
	}
	cur, err := e.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// The read-modify-write below is serialized per item so two concurrent
	// extends cannot lose one another's update.
	unlock := e.locks.Lock(cur.Item)
	defer unlock()

	cur, err = e.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if cur.Status != model.StatusActive {
		return false, nil
	}
	err = e.store.UpdateExpiry(ctx, id, cur.ExpiresAt.Add(extra))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrNotFound):
		// Lost a race against complete, cancel or the sweep.
		return false, nil
	default:
		return false, err
	}
}

// CheckAvailability reports whether quantity units of the item could be
// reserved right now.  It is a pure query and subject to races against
// concurrent reserves; a true result is advisory, never a guarantee.
func (e *Engine) CheckAvailability(ctx context.Context, item model.Item, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	if !item.Valid() {
		return false, ErrInvalidItem
	}
	avail, err := e.calc.Available(ctx, item)
	if err != nil {
		return false, err
	}
	return avail >= quantity, nil
}

// Available returns the current computed headroom for the item.
func (e *Engine) Available(ctx context.Context, item model.Item) (int, error) {
	if !item.Valid() {
		return 0, ErrInvalidItem
	}
	return e.calc.Available(ctx, item)
}

// Get returns the reservation by id, with ErrNotFound passed through.  Used
// by the embedding application to look up the item and quantity of a hold,
// for example before converting a completed hold into a stock deduction.
func (e *Engine) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return e.store.GetByID(ctx, id)
}

// SessionReservations enumerates the session's active holds.
func (e *Engine) SessionReservations(ctx context.Context, sessionID string) ([]model.Reservation, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	return e.store.ListActiveBySession(ctx, sessionID)
}

// ReleaseExpired transitions every active reservation whose deadline has
// passed to EXPIRED and returns how many were transitioned.  It is
// idempotent: a second call with no new expirations returns zero.  Records
// that lose the transition race to a concurrent complete or cancel are
// skipped, not counted and not an error.
func (e *Engine) ReleaseExpired(ctx context.Context) (int, error) {
	expired, err := e.store.ListExpiredActive(ctx, e.clock.Now())
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range expired {
		err := e.store.UpdateStatus(ctx, r.ID, model.StatusExpired)
		switch {
		case err == nil:
			count++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotFound):
			continue
		default:
			return count, err
		}
	}
	return count, nil
}
