package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
)

func storeRecord(id string, status model.Status, expiresAt time.Time) *model.Reservation {
	return &model.Reservation{
		ID:        id,
		Item:      model.Item{ProductID: "p1", LocationID: "l1"},
		Quantity:  1,
		SessionID: "s1",
		CreatedAt: expiresAt.Add(-15 * time.Minute),
		ExpiresAt: expiresAt,
		Status:    status,
	}
}

func TestMemoryStoreDuplicateID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	r := storeRecord("a", model.StatusActive, time.Now())

	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("first Insert returned error: %v", err)
	}
	if err := s.Insert(ctx, r); err != ErrDuplicateID {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemoryStoreGetByIDCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Insert(ctx, storeRecord("a", model.StatusActive, time.Now())); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	got, err := s.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	got.Status = model.StatusCancelled // must not leak into the store

	again, _ := s.GetByID(ctx, "a")
	if again.Status != model.StatusActive {
		t.Errorf("store record mutated through returned copy")
	}

	if _, err := s.GetByID(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTransitionEnforcement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Insert(ctx, storeRecord("a", model.StatusActive, time.Now())); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := s.UpdateStatus(ctx, "a", model.StatusCompleted); err != nil {
		t.Fatalf("ACTIVE->COMPLETED returned error: %v", err)
	}
	// Terminal states are final.
	for _, next := range []model.Status{model.StatusActive, model.StatusExpired, model.StatusCancelled} {
		if err := s.UpdateStatus(ctx, "a", next); err != ErrInvalidTransition {
			t.Errorf("COMPLETED->%s: expected ErrInvalidTransition, got %v", next, err)
		}
	}
	if err := s.UpdateStatus(ctx, "missing", model.StatusExpired); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpdateExpiryRequiresActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Insert(ctx, storeRecord("a", model.StatusActive, base)); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	next := base.Add(10 * time.Minute)
	if err := s.UpdateExpiry(ctx, "a", next); err != nil {
		t.Fatalf("UpdateExpiry returned error: %v", err)
	}
	got, _ := s.GetByID(ctx, "a")
	if !got.ExpiresAt.Equal(next) {
		t.Errorf("expected expiry %v, got %v", next, got.ExpiresAt)
	}

	if err := s.UpdateStatus(ctx, "a", model.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if err := s.UpdateExpiry(ctx, "a", next.Add(time.Minute)); err != ErrNotActive {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
	if err := s.UpdateExpiry(ctx, "missing", next); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListExpiredActiveStrictCutoff(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Insert(ctx, storeRecord("past", model.StatusActive, cutoff.Add(-time.Second))); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := s.Insert(ctx, storeRecord("exact", model.StatusActive, cutoff)); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := s.Insert(ctx, storeRecord("future", model.StatusActive, cutoff.Add(time.Second))); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	expired, err := s.ListExpiredActive(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListExpiredActive returned error: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "past" {
		t.Errorf("expected only the strictly-past record, got %v", expired)
	}
}

func TestMemoryStoreListFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	a := storeRecord("a", model.StatusActive, now)
	b := storeRecord("b", model.StatusActive, now)
	b.Item = model.Item{ProductID: "p2", LocationID: "l1"}
	b.SessionID = "s2"
	if err := s.Insert(ctx, a); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := s.Insert(ctx, b); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := s.UpdateStatus(ctx, "b", model.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	byItem, err := s.ListActiveByItem(ctx, a.Item)
	if err != nil {
		t.Fatalf("ListActiveByItem returned error: %v", err)
	}
	if len(byItem) != 1 || byItem[0].ID != "a" {
		t.Errorf("expected only record a for item, got %v", byItem)
	}

	bySession, err := s.ListActiveBySession(ctx, "s2")
	if err != nil {
		t.Fatalf("ListActiveBySession returned error: %v", err)
	}
	if len(bySession) != 0 {
		t.Errorf("cancelled record must not be listed, got %v", bySession)
	}
}
