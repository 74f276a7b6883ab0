package model

import "time"

// Status enumerates the lifecycle states of a reservation.  A reservation
// starts as ACTIVE and moves exactly once into one of the terminal states.
// Terminal reservations are never resurrected and never deleted; they are
// retained for audit history.
type Status string

const (
	StatusActive    Status = "ACTIVE"    // counted against availability
	StatusCompleted Status = "COMPLETED" // hold converted into a committed stock deduction
	StatusExpired   Status = "EXPIRED"   // past its deadline, released by the sweep
	StatusCancelled Status = "CANCELLED" // released by the owning session
)

// CanTransitionTo reports whether moving from s to next is a legal state
// machine transition.  The only legal moves are from ACTIVE into one of the
// three terminal states.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusActive {
		return false
	}
	switch next {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is one of the end states.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Reservation is a time-bounded hold on a quantity of inventory for a
// specific item, tied to the cart session that created it.  All fields
// except Status and ExpiresAt are immutable after creation; ExpiresAt may
// only grow, and only while the reservation is ACTIVE.
//
// Fields:
//
//	ID        – globally unique identifier assigned at creation.
//	Item      – the (product, variant, location) tuple being held.
//	Quantity  – units held; always positive.  Adjustments are modeled as
//	            new reservations rather than mutation, to keep history.
//	SessionID – opaque identifier of the owning cart/session.
//	CreatedAt – when the hold was created (UTC).
//	ExpiresAt – when the hold lapses unless completed or extended (UTC).
//	Status    – current lifecycle state.
type Reservation struct {
	ID        string    `json:"id"`
	Item      Item      `json:"item"`
	Quantity  int       `json:"quantity"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    Status    `json:"status"`
}
