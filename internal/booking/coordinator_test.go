package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

func newTestCoordinator() (*Coordinator, *fakeLedger, *fakeStore) {
	ledger := newFakeLedger()
	store := newFakeStore()
	return NewCoordinator(ledger, store, fakeRunner{}), ledger, store
}

func newReservation(room string, guests int) *model.Reservation {
	return &model.Reservation{
		RestaurantID: "italian",
		Date:         "2026-09-10",
		Time:         "19:00",
		Room:         room,
		Guests:       guests,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
	}
}

func TestCreateEnforcesCapacity(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 5, 0)

	if err := c.Create(context.Background(), newReservation("101", 3)); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 3 {
		t.Fatalf("reserved after first booking = %d, want 3", got)
	}

	err := c.Create(context.Background(), newReservation("102", 3))
	var exceeded *CapacityExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("second booking error = %v, want CapacityExceededError", err)
	}
	if exceeded.Remaining != 2 {
		t.Fatalf("remaining = %d, want 2", exceeded.Remaining)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 3 {
		t.Fatalf("reserved after rejected booking = %d, want 3", got)
	}
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	ledger := newFakeLedger()
	store := newFakeStore()
	c := NewCoordinator(ledger, store, &serialRunner{})
	ledger.set("italian", "2026-09-10", 10, 0)

	const attempts = 15
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(room int) {
			defer wg.Done()
			err := c.Create(context.Background(), newReservation(fmt.Sprintf("room-%d", room), 1))
			mu.Lock()
			defer mu.Unlock()
			var exceeded *CapacityExceededError
			switch {
			case err == nil:
				created++
			case errors.As(err, &exceeded):
				rejected++
			default:
				t.Errorf("create room-%d: %v", room, err)
			}
		}(i)
	}
	wg.Wait()

	if created != 10 || rejected != 5 {
		t.Fatalf("created=%d rejected=%d, want 10/5", created, rejected)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 10 {
		t.Fatalf("reserved = %d, want 10", got)
	}
}

func TestCreateWithoutCapacityRow(t *testing.T) {
	c, _, _ := newTestCoordinator()
	err := c.Create(context.Background(), newReservation("101", 2))
	if !errors.Is(err, ErrNoCapacityConfigured) {
		t.Fatalf("err = %v, want ErrNoCapacityConfigured", err)
	}
}

func TestCreateRejectsSecondBookingForRoom(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 50, 0)
	ledger.set("chinese", "2026-09-10", 50, 0)

	if err := c.Create(context.Background(), newReservation("101", 2)); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	dup := newReservation("101", 2)
	dup.RestaurantID = "chinese"
	err := c.Create(context.Background(), dup)
	if !errors.Is(err, repository.ErrDuplicateRoomBooking) {
		t.Fatalf("err = %v, want ErrDuplicateRoomBooking", err)
	}
	if got := ledger.reserved("chinese", "2026-09-10"); got != 0 {
		t.Fatalf("reserved at second restaurant = %d, want 0", got)
	}
}

func TestCreateAssignsTokenAndState(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 10, 0)

	res := newReservation("101", 2)
	if err := c.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != model.StatusConfirmed {
		t.Errorf("status = %q, want confirmed", res.Status)
	}
	if res.EmailStatus != model.EmailPending {
		t.Errorf("email status = %q, want pending", res.EmailStatus)
	}
	if res.CancelToken == "" {
		t.Error("cancel token not assigned")
	}
	if res.CancelTokenIssuedAt.IsZero() {
		t.Error("cancel token issue time not set")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 10, 0)

	res := newReservation("101", 4)
	if err := c.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := c.Cancel(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 0 {
		t.Fatalf("reserved after cancel = %d, want 0", got)
	}

	if _, err := c.Cancel(context.Background(), res.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("second cancel err = %v, want ErrAlreadyCancelled", err)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 0 {
		t.Fatalf("reserved after repeated cancel = %d, want 0", got)
	}
}

func TestModifyResizesOnSameDate(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 6, 0)

	res := newReservation("101", 2)
	if err := c.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := c.Modify(context.Background(), res.ID, "2026-09-10", "20:00", 4)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if updated.Guests != 4 || updated.Time != "20:00" {
		t.Fatalf("updated = %d guests at %s, want 4 at 20:00", updated.Guests, updated.Time)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 4 {
		t.Fatalf("reserved = %d, want 4", got)
	}

	// Growing past the day's capacity must fail and leave the ledger alone.
	_, err = c.Modify(context.Background(), res.ID, "2026-09-10", "20:00", 7)
	var exceeded *CapacityExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("oversize modify err = %v, want CapacityExceededError", err)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 4 {
		t.Fatalf("reserved after rejected modify = %d, want 4", got)
	}
}

func TestModifyMovesAcrossDates(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 10, 0)
	ledger.set("italian", "2026-09-11", 10, 0)

	res := newReservation("101", 3)
	if err := c.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := c.Modify(context.Background(), res.ID, "2026-09-11", "19:30", 5); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 0 {
		t.Fatalf("old date reserved = %d, want 0", got)
	}
	if got := ledger.reserved("italian", "2026-09-11"); got != 5 {
		t.Fatalf("new date reserved = %d, want 5", got)
	}

	// Full round trip back to an empty ledger.
	if _, err := c.Cancel(context.Background(), res.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := ledger.reserved("italian", "2026-09-11"); got != 0 {
		t.Fatalf("reserved after round trip = %d, want 0", got)
	}
}

func TestModifyMoveToUnconfiguredDate(t *testing.T) {
	c, ledger, _ := newTestCoordinator()
	ledger.set("italian", "2026-09-10", 10, 0)

	res := newReservation("101", 3)
	if err := c.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := c.Modify(context.Background(), res.ID, "2026-09-12", "19:00", 3)
	if !errors.Is(err, ErrNoCapacityConfigured) {
		t.Fatalf("err = %v, want ErrNoCapacityConfigured", err)
	}
	if got := ledger.reserved("italian", "2026-09-10"); got != 3 {
		t.Fatalf("reserved after failed move = %d, want 3", got)
	}
}

func TestRetryableTxErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205}, true},
		{"duplicate entry", &mysql.MySQLError{Number: 1062}, false},
		{"plain error", errors.New("boom"), false},
		{"domain sentinel", ErrNoCapacityConfigured, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryableTxError(tc.err); got != tc.want {
				t.Fatalf("retryableTxError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
