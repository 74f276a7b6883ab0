package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time.  It is injectable so that expiry logic
// can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// UTCClock returns the wall clock in UTC, the default for production use.
func UTCClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// IDGenerator produces globally unique reservation identifiers.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a plain function to the IDGenerator interface.
type IDFunc func() string

// NewID implements IDGenerator.
func (f IDFunc) NewID() string { return f() }

// UUIDGenerator returns the default generator, producing random UUIDs.
func UUIDGenerator() IDGenerator {
	return IDFunc(uuid.NewString)
}
