package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
)

// MemoryStore is a mutex-guarded in-memory Store.  It is the right choice
// for a single-process deployment and for tests.  All methods copy records
// in and out so callers never alias the store's internal state.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.Reservation
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*model.Reservation)}
}

// Insert adds a new record.  The stored copy is detached from the caller's
// value.
func (s *MemoryStore) Insert(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return ErrDuplicateID
	}
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

// GetByID returns a copy of the record or ErrNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListActiveByItem returns copies of all ACTIVE records for the item.
func (s *MemoryStore) ListActiveByItem(ctx context.Context, item model.Item) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range s.records {
		if r.Status == model.StatusActive && r.Item == item {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ListActiveBySession returns copies of all ACTIVE records for the session.
func (s *MemoryStore) ListActiveBySession(ctx context.Context, sessionID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range s.records {
		if r.Status == model.StatusActive && r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ListExpiredActive returns copies of ACTIVE records whose ExpiresAt is
// strictly before asOf.
func (s *MemoryStore) ListExpiredActive(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range s.records {
		if r.Status == model.StatusActive && r.ExpiresAt.Before(asOf) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// UpdateStatus transitions the record, enforcing the one-way state machine.
// The whole check-and-set happens under the write lock, so two racing
// transitions produce exactly one winner.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, next model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	return nil
}

// UpdateExpiry replaces ExpiresAt while the record is ACTIVE.
func (s *MemoryStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != model.StatusActive {
		return ErrNotActive
	}
	r.ExpiresAt = expiresAt
	return nil
}
