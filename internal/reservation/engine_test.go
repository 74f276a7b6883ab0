package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/avros/inventory-reservation/internal/model"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// fakeStock is a map-backed oracle local to the tests.
type fakeStock struct {
	mu     sync.RWMutex
	onHand map[model.Item]int
}

func newFakeStock() *fakeStock {
	return &fakeStock{onHand: make(map[model.Item]int)}
}

func (f *fakeStock) Set(item model.Item, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onHand[item] = qty
}

func (f *fakeStock) OnHand(ctx context.Context, item model.Item) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	qty, ok := f.onHand[item]
	if !ok {
		return 0, ErrUnknownItem
	}
	return qty, nil
}

func seqIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return IDFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("res-%d", n)
	})
}

func testItem() model.Item {
	return model.Item{ProductID: "prod-1", VariantID: "var-1", LocationID: "loc-1"}
}

func newTestEngine(t *testing.T, onHand int) (*Engine, *fakeClock, *fakeStock) {
	t.Helper()
	clock := newFakeClock()
	stock := newFakeStock()
	stock.Set(testItem(), onHand)
	engine := NewEngine(NewMemoryStore(), stock, WithClock(clock), WithIDGenerator(seqIDs()))
	return engine, clock, stock
}

func mustReserve(t *testing.T, e *Engine, qty int) *model.Reservation {
	t.Helper()
	res, err := e.Reserve(context.Background(), ReserveRequest{
		Item: testItem(), Quantity: qty, SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if !res.Reserved {
		t.Fatalf("Reserve failed, available=%d", res.Available)
	}
	return res.Reservation
}

func TestReserveAndCheckAvailability(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	r := mustReserve(t, engine, 4)
	if r.Status != model.StatusActive {
		t.Errorf("expected status ACTIVE, got %s", r.Status)
	}
	if r.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", r.Quantity)
	}
	if !r.ExpiresAt.After(r.CreatedAt) {
		t.Errorf("expected ExpiresAt after CreatedAt")
	}

	ok, err := engine.CheckAvailability(ctx, testItem(), 6)
	if err != nil {
		t.Fatalf("CheckAvailability(6) returned error: %v", err)
	}
	if !ok {
		t.Errorf("expected 6 units to be available")
	}
	ok, err = engine.CheckAvailability(ctx, testItem(), 7)
	if err != nil {
		t.Fatalf("CheckAvailability(7) returned error: %v", err)
	}
	if ok {
		t.Errorf("expected 7 units to be unavailable")
	}
}

func TestReserveInsufficientCarriesAvailable(t *testing.T) {
	engine, _, _ := newTestEngine(t, 3)
	ctx := context.Background()

	res, err := engine.Reserve(ctx, ReserveRequest{Item: testItem(), Quantity: 5, SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("expected benign failure, got error: %v", err)
	}
	if res.Reserved {
		t.Fatal("expected reservation to be refused")
	}
	if res.Available != 3 {
		t.Errorf("expected available 3, got %d", res.Available)
	}
	// No record may be created on refusal.
	list, err := engine.SessionReservations(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionReservations returned error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no reservations, got %d", len(list))
	}
}

func TestReserveRejectsContractViolations(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		_, err := engine.Reserve(ctx, ReserveRequest{Item: testItem(), Quantity: qty, SessionID: "sess-1"})
		if err != ErrInvalidQuantity {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}

	_, err := engine.Reserve(ctx, ReserveRequest{Item: model.Item{ProductID: "p"}, Quantity: 1, SessionID: "sess-1"})
	if err != ErrInvalidItem {
		t.Errorf("expected ErrInvalidItem, got %v", err)
	}

	_, err = engine.Reserve(ctx, ReserveRequest{Item: testItem(), Quantity: 1})
	if err != ErrMissingSession {
		t.Errorf("expected ErrMissingSession, got %v", err)
	}
}

func TestReserveUnknownItemFailsLoudly(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	unknown := model.Item{ProductID: "nope", LocationID: "loc-1"}

	_, err := engine.Reserve(context.Background(), ReserveRequest{Item: unknown, Quantity: 1, SessionID: "sess-1"})
	if err != ErrUnknownItem {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	engine, _, _ := newTestEngine(t, 5)
	ctx := context.Background()

	results := make([]ReserveResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Reserve(ctx, ReserveRequest{
				Item: testItem(), Quantity: 3, SessionID: fmt.Sprintf("sess-%d", i),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("attempt %d returned error: %v", i, errs[i])
		}
		if results[i].Reserved {
			succeeded++
		} else if results[i].Available != 2 {
			t.Errorf("loser should see available 2, got %d", results[i].Available)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winner, got %d", succeeded)
	}

	// Active holds must never exceed on-hand stock.
	avail, err := engine.Available(ctx, testItem())
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if avail != 2 {
		t.Errorf("expected remaining availability 2, got %d", avail)
	}
}

func TestCompleteRoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	r := mustReserve(t, engine, 4)
	ok, err := engine.Complete(ctx, r.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected Complete to succeed")
	}

	got, err := engine.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", got.Status)
	}

	// Completed holds no longer count against availability (the matching
	// on-hand decrement is the embedding application's move).
	avail, err := engine.Available(ctx, testItem())
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if avail != 10 {
		t.Errorf("expected availability 10 after completion, got %d", avail)
	}

	// Completing again is a benign no-op.
	ok, err = engine.Complete(ctx, r.ID)
	if err != nil {
		t.Fatalf("second Complete returned error: %v", err)
	}
	if ok {
		t.Error("expected second Complete to report false")
	}
}

func TestCancelFreesQuantityImmediately(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	r := mustReserve(t, engine, 7)
	avail, _ := engine.Available(ctx, testItem())
	if avail != 3 {
		t.Fatalf("expected availability 3 while held, got %d", avail)
	}

	ok, err := engine.Cancel(ctx, r.ID)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected Cancel to succeed")
	}

	avail, err = engine.Available(ctx, testItem())
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if avail != 10 {
		t.Errorf("expected availability 10 after cancel, got %d", avail)
	}
}

func TestExtendAddsExactDuration(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	r := mustReserve(t, engine, 1)
	want := r.ExpiresAt.Add(10 * time.Minute)

	ok, err := engine.Extend(ctx, r.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected Extend to succeed")
	}
	got, _ := engine.Get(ctx, r.ID)
	if !got.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, got.ExpiresAt)
	}

	// Extending a cancelled reservation reports false.
	if _, err := engine.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	ok, err = engine.Extend(ctx, r.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("Extend after cancel returned error: %v", err)
	}
	if ok {
		t.Error("expected Extend on cancelled reservation to report false")
	}
}

func TestExtendRejectsNonPositiveDuration(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	r := mustReserve(t, engine, 1)

	if _, err := engine.Extend(context.Background(), r.ID, 0); err != ErrInvalidDuration {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestExtendMissingReservation(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)

	ok, err := engine.Extend(context.Background(), "missing", time.Minute)
	if err != nil {
		t.Fatalf("expected benign false, got error: %v", err)
	}
	if ok {
		t.Error("expected false for missing reservation")
	}
}

func TestExpirySweep(t *testing.T) {
	engine, clock, _ := newTestEngine(t, 10)
	ctx := context.Background()

	res, err := engine.Reserve(ctx, ReserveRequest{
		Item: testItem(), Quantity: 2, SessionID: "sess-1", Duration: time.Minute,
	})
	if err != nil || !res.Reserved {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Not yet due.
	n, err := engine.ReleaseExpired(ctx)
	if err != nil {
		t.Fatalf("ReleaseExpired returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 expired before deadline, got %d", n)
	}

	clock.Advance(61 * time.Second)

	n, err = engine.ReleaseExpired(ctx)
	if err != nil {
		t.Fatalf("ReleaseExpired returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	got, _ := engine.Get(ctx, res.Reservation.ID)
	if got.Status != model.StatusExpired {
		t.Errorf("expected status EXPIRED, got %s", got.Status)
	}

	// Completing an expired reservation is a benign no-op.
	ok, err := engine.Complete(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if ok {
		t.Error("expected Complete on expired reservation to report false")
	}

	// Idempotent: nothing new to expire.
	n, err = engine.ReleaseExpired(ctx)
	if err != nil {
		t.Fatalf("second ReleaseExpired returned error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected second sweep to expire 0, got %d", n)
	}
}

func TestExpiredHoldFreesAvailability(t *testing.T) {
	engine, clock, _ := newTestEngine(t, 5)
	ctx := context.Background()

	if _, err := engine.Reserve(ctx, ReserveRequest{
		Item: testItem(), Quantity: 5, SessionID: "sess-1", Duration: time.Minute,
	}); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	avail, _ := engine.Available(ctx, testItem())
	if avail != 0 {
		t.Fatalf("expected availability 0 while held, got %d", avail)
	}

	clock.Advance(2 * time.Minute)
	if _, err := engine.ReleaseExpired(ctx); err != nil {
		t.Fatalf("ReleaseExpired returned error: %v", err)
	}

	avail, err := engine.Available(ctx, testItem())
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if avail != 5 {
		t.Errorf("expected availability 5 after expiry, got %d", avail)
	}
}

func TestSessionReservationsListsOnlyActive(t *testing.T) {
	engine, _, _ := newTestEngine(t, 10)
	ctx := context.Background()

	first := mustReserve(t, engine, 2)
	second, err := engine.Reserve(ctx, ReserveRequest{Item: testItem(), Quantity: 3, SessionID: "sess-1"})
	if err != nil || !second.Reserved {
		t.Fatalf("second Reserve failed: %v", err)
	}
	if _, err := engine.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	list, err := engine.SessionReservations(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionReservations returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 active reservation, got %d", len(list))
	}
	if list[0].ID != second.Reservation.ID {
		t.Errorf("expected reservation %s, got %s", second.Reservation.ID, list[0].ID)
	}

	if _, err := engine.SessionReservations(ctx, ""); err != ErrMissingSession {
		t.Errorf("expected ErrMissingSession for empty session, got %v", err)
	}
}

func TestDefaultHoldTTLApplied(t *testing.T) {
	clock := newFakeClock()
	stock := newFakeStock()
	stock.Set(testItem(), 10)
	engine := NewEngine(NewMemoryStore(), stock,
		WithClock(clock), WithIDGenerator(seqIDs()), WithHoldTTL(5*time.Minute))

	res, err := engine.Reserve(context.Background(), ReserveRequest{
		Item: testItem(), Quantity: 1, SessionID: "sess-1",
	})
	if err != nil || !res.Reserved {
		t.Fatalf("Reserve failed: %v", err)
	}
	want := clock.Now().Add(5 * time.Minute)
	if !res.Reservation.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, res.Reservation.ExpiresAt)
	}
}
