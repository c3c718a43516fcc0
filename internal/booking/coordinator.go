package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// Coordinator runs the atomic read-check-write protocol that links the
// capacity ledger and the reservation store. Every mutation of
// reserved_guests goes through here, paired with the matching
// reservation write in the same transaction, so the two stay consistent
// under concurrent bookings.
type Coordinator struct {
	ledger Ledger
	store  Store
	runner TxRunner
}

// NewCoordinator wires a Coordinator over the ledger, the store and a
// transaction runner sharing the same database.
func NewCoordinator(ledger Ledger, store Store, runner TxRunner) *Coordinator {
	return &Coordinator{ledger: ledger, store: store, runner: runner}
}

// Create books a dinner reservation. It locks the capacity row for
// (restaurant, date), validates the remaining seats and the one-booking-
// per-room rule against that snapshot, then applies the guest delta and
// inserts the reservation in the same transaction. On success the record
// carries a fresh cancel token, confirmed status and a pending email
// state.
func (c *Coordinator) Create(ctx context.Context, res *model.Reservation) error {
	res.Status = model.StatusConfirmed
	res.EmailStatus = model.EmailPending
	res.CancelToken = uuid.NewString()
	res.CancelTokenIssuedAt = time.Now().UTC()

	return c.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		day, err := c.ledger.GetForUpdateTx(ctx, tx, res.RestaurantID, res.Date)
		if err == repository.ErrNotFound {
			return ErrNoCapacityConfigured
		}
		if err != nil {
			return err
		}
		if day.Capacity-day.ReservedGuests < res.Guests {
			return &CapacityExceededError{Remaining: day.Remaining()}
		}
		booked, err := c.store.RoomBookedTx(ctx, tx, res.Room, res.Date)
		if err != nil {
			return err
		}
		if booked {
			return repository.ErrDuplicateRoomBooking
		}
		if err := c.ledger.ApplyDeltaTx(ctx, tx, res.RestaurantID, res.Date, res.Guests); err != nil {
			return err
		}
		return c.store.CreateTx(ctx, tx, res)
	})
}

// Modify reschedules a reservation to a new date, time and guest count.
// A guest-count change applies the net delta against the locked capacity
// row; a date change releases the old day's seats and claims the new
// day's in one transaction, locking both ledger rows in date order so two
// opposing moves cannot deadlock on each other. The updated reservation
// is returned.
func (c *Coordinator) Modify(ctx context.Context, id uint64, newDate, newTime string, newGuests int) (*model.Reservation, error) {
	var out *model.Reservation
	err := c.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		res, err := c.store.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if newDate == res.Date {
			if err := c.resize(ctx, tx, res, newGuests); err != nil {
				return err
			}
		} else {
			if err := c.move(ctx, tx, res, newDate, newGuests); err != nil {
				return err
			}
		}
		if err := c.store.UpdateScheduleTx(ctx, tx, id, newDate, newTime, newGuests); err != nil {
			return err
		}
		res.Date = newDate
		res.Time = newTime
		res.Guests = newGuests
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resize applies a guest-count change on the reservation's current date.
func (c *Coordinator) resize(ctx context.Context, tx *sql.Tx, res *model.Reservation, newGuests int) error {
	delta := newGuests - res.Guests
	if delta == 0 {
		return nil
	}
	day, err := c.ledger.GetForUpdateTx(ctx, tx, res.RestaurantID, res.Date)
	if err == repository.ErrNotFound {
		return ErrNoCapacityConfigured
	}
	if err != nil {
		return err
	}
	if delta > 0 && day.Capacity-day.ReservedGuests < delta {
		return &CapacityExceededError{Remaining: day.Remaining()}
	}
	return c.ledger.ApplyDeltaTx(ctx, tx, res.RestaurantID, res.Date, delta)
}

// move transfers the reservation's seats from its current date to
// newDate. Both ledger rows are locked, smaller date first.
func (c *Coordinator) move(ctx context.Context, tx *sql.Tx, res *model.Reservation, newDate string, newGuests int) error {
	first, second := res.Date, newDate
	if second < first {
		first, second = second, first
	}
	var target *model.Capacity
	for _, d := range []string{first, second} {
		day, err := c.ledger.GetForUpdateTx(ctx, tx, res.RestaurantID, d)
		if err == repository.ErrNotFound {
			if d == newDate {
				return ErrNoCapacityConfigured
			}
			continue
		}
		if err != nil {
			return err
		}
		if d == newDate {
			target = day
		}
	}
	if target == nil {
		return ErrNoCapacityConfigured
	}
	if target.Capacity-target.ReservedGuests < newGuests {
		return &CapacityExceededError{Remaining: target.Remaining()}
	}
	booked, err := c.store.RoomBookedTx(ctx, tx, res.Room, newDate)
	if err != nil {
		return err
	}
	if booked {
		return repository.ErrDuplicateRoomBooking
	}
	if err := c.ledger.ApplyDeltaTx(ctx, tx, res.RestaurantID, res.Date, -res.Guests); err != nil {
		return err
	}
	return c.ledger.ApplyDeltaTx(ctx, tx, res.RestaurantID, newDate, newGuests)
}

// Cancel releases a reservation's seats and deletes its row in one
// transaction. The reservation is re-read under lock inside the
// transaction, so a concurrent or repeated cancellation finds no row and
// returns ErrAlreadyCancelled without touching the ledger. The cancelled
// reservation is returned for email notification.
func (c *Coordinator) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
	var out *model.Reservation
	err := c.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		res, err := c.store.GetForUpdateTx(ctx, tx, id)
		if err == repository.ErrNotFound {
			return ErrAlreadyCancelled
		}
		if err != nil {
			return err
		}
		if err := c.ledger.ApplyDeltaTx(ctx, tx, res.RestaurantID, res.Date, -res.Guests); err != nil {
			return err
		}
		if err := c.store.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
