package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// CapacityRepo provides access to the capacity ledger: one row per
// (restaurant, date) carrying the day's seat capacity and the number of
// guests already reserved.  The reserved_guests column is only ever
// mutated through ApplyDeltaTx inside a booking transaction; the repo
// itself does not clamp or validate deltas, keeping abort-on-violation
// semantics in the coordinator.
type CapacityRepo struct {
	db *sql.DB
}

// NewCapacityRepo returns a new CapacityRepo bound to the given database.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span the ledger and the reservation store.
func (r *CapacityRepo) DB() *sql.DB { return r.db }

const capacityCols = `id, restaurant_id, date, capacity, reserved_guests, updated_at`

func scanCapacity(row *sql.Row) (*model.Capacity, error) {
	var c model.Capacity
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Date, &c.Capacity, &c.ReservedGuests, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Get returns the ledger entry for (restaurantID, date) or ErrNotFound.
func (r *CapacityRepo) Get(ctx context.Context, restaurantID, date string) (*model.Capacity, error) {
	const q = `SELECT ` + capacityCols + ` FROM capacities WHERE restaurant_id = ? AND date = ?`
	return scanCapacity(r.db.QueryRowContext(ctx, q, restaurantID, date))
}

// GetForUpdateTx reads the ledger entry under a row lock.  Every booking
// transaction reads its capacity snapshot through this method, so
// concurrent transactions on the same (restaurant, date) serialize here
// and each one validates against committed state.
func (r *CapacityRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, restaurantID, date string) (*model.Capacity, error) {
	const q = `SELECT ` + capacityCols + ` FROM capacities WHERE restaurant_id = ? AND date = ? FOR UPDATE`
	return scanCapacity(tx.QueryRowContext(ctx, q, restaurantID, date))
}

// ApplyDeltaTx adds a signed delta to reserved_guests within the provided
// transaction.  The caller must have validated the resulting value against
// the row it locked with GetForUpdateTx; no check is performed here.
func (r *CapacityRepo) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, restaurantID, date string, delta int) error {
	const q = `UPDATE capacities SET reserved_guests = reserved_guests + ? WHERE restaurant_id = ? AND date = ?`
	res, err := tx.ExecContext(ctx, q, delta, restaurantID, date)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCapacity creates or updates the capacity for (restaurantID, date).
// Lowering capacity below the guests already reserved fails with
// ErrCapacityTooLow.  The read-check-write runs in its own transaction so
// a concurrent booking cannot slip between the check and the update.
func (r *CapacityRepo) SetCapacity(ctx context.Context, restaurantID, date string, newCapacity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := r.GetForUpdateTx(ctx, tx, restaurantID, date)
	switch {
	case errors.Is(err, ErrNotFound):
		const ins = `INSERT INTO capacities (restaurant_id, date, capacity, reserved_guests) VALUES (?, ?, ?, 0)`
		if _, err := tx.ExecContext(ctx, ins, restaurantID, date, newCapacity); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if newCapacity < cur.ReservedGuests {
			return ErrCapacityTooLow
		}
		const upd = `UPDATE capacities SET capacity = ? WHERE restaurant_id = ? AND date = ?`
		if _, err := tx.ExecContext(ctx, upd, newCapacity, restaurantID, date); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListRange returns all ledger entries with start <= date < end, ordered
// by restaurant then date.  Dates are compared as YYYY-MM-DD strings.
func (r *CapacityRepo) ListRange(ctx context.Context, start, end string) ([]model.Capacity, error) {
	const q = `SELECT ` + capacityCols + `
	           FROM capacities
	           WHERE date >= ? AND date < ?
	           ORDER BY restaurant_id, date`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Capacity, 0)
	for rows.Next() {
		var c model.Capacity
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Date, &c.Capacity, &c.ReservedGuests, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every ledger entry.  Used by the staff capacities view,
// which keys results as "{restaurant}_{date}".
func (r *CapacityRepo) ListAll(ctx context.Context) ([]model.Capacity, error) {
	const q = `SELECT ` + capacityCols + ` FROM capacities ORDER BY restaurant_id, date`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Capacity, 0)
	for rows.Next() {
		var c model.Capacity
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Date, &c.Capacity, &c.ReservedGuests, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
