package booking

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// fakeRunner invokes the transaction body directly. The fakes below keep
// state in memory, so there is nothing to commit or roll back; mutations
// from a failed body are asserted on explicitly where a test cares.
type fakeRunner struct{}

func (fakeRunner) RunInTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// serialRunner runs one transaction body at a time, standing in for the
// row locks MySQL takes under FOR UPDATE. With it, concurrent bookings
// interleave at whole-transaction granularity like they do in production.
type serialRunner struct {
	mu sync.Mutex
}

func (r *serialRunner) RunInTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type fakeLedger struct {
	days map[string]*model.Capacity
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{days: make(map[string]*model.Capacity)}
}

func ledgerKey(restaurantID, date string) string {
	return fmt.Sprintf("%s_%s", restaurantID, date)
}

func (l *fakeLedger) set(restaurantID, date string, capacity, reserved int) {
	l.days[ledgerKey(restaurantID, date)] = &model.Capacity{
		RestaurantID:   restaurantID,
		Date:           date,
		Capacity:       capacity,
		ReservedGuests: reserved,
	}
}

func (l *fakeLedger) reserved(restaurantID, date string) int {
	if d, ok := l.days[ledgerKey(restaurantID, date)]; ok {
		return d.ReservedGuests
	}
	return 0
}

func (l *fakeLedger) GetForUpdateTx(_ context.Context, _ *sql.Tx, restaurantID, date string) (*model.Capacity, error) {
	d, ok := l.days[ledgerKey(restaurantID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	snapshot := *d
	return &snapshot, nil
}

func (l *fakeLedger) ApplyDeltaTx(_ context.Context, _ *sql.Tx, restaurantID, date string, delta int) error {
	d, ok := l.days[ledgerKey(restaurantID, date)]
	if !ok {
		return repository.ErrNotFound
	}
	d.ReservedGuests += delta
	return nil
}

type fakeStore struct {
	nextID       uint64
	reservations map[uint64]*model.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, reservations: make(map[uint64]*model.Reservation)}
}

func (s *fakeStore) CreateTx(_ context.Context, _ *sql.Tx, res *model.Reservation) error {
	res.ID = s.nextID
	s.nextID++
	stored := *res
	s.reservations[res.ID] = &stored
	return nil
}

func (s *fakeStore) RoomBookedTx(_ context.Context, _ *sql.Tx, room, date string) (bool, error) {
	for _, r := range s.reservations {
		if r.Room == room && r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetForUpdateTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Reservation, error) {
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	snapshot := *r
	return &snapshot, nil
}

func (s *fakeStore) UpdateScheduleTx(_ context.Context, _ *sql.Tx, id uint64, date, timeStr string, guests int) error {
	r, ok := s.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Date = date
	r.Time = timeStr
	r.Guests = guests
	return nil
}

func (s *fakeStore) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	delete(s.reservations, id)
	return nil
}
