// Package queue defines message payloads exchanged over the message broker.
package queue

// Event type discriminators carried in ReservationEvent.Event.
const (
	EventReserved  = "reserved"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventExtended  = "extended"
)

// ReservationEvent is published whenever a reservation changes state.  It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type ReservationEvent struct {
	Event         string `json:"event"`
	ReservationID string `json:"reservation_id"`
	ProductID     string `json:"product_id"`
	VariantID     string `json:"variant_id,omitempty"`
	LocationID    string `json:"location_id"`
	SessionID     string `json:"session_id"`
	Quantity      int    `json:"quantity"`
	ExpiresAt     string `json:"expires_at"`
	OccurredAt    string `json:"occurred_at"`
}
