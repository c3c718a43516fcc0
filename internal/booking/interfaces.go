package booking

import (
	"context"
	"database/sql"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// Ledger is the capacity side of a booking transaction. Implemented by
// repository.CapacityRepo.
type Ledger interface {
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, restaurantID, date string) (*model.Capacity, error)
	ApplyDeltaTx(ctx context.Context, tx *sql.Tx, restaurantID, date string, delta int) error
}

// Store is the reservation side of a booking transaction. Implemented by
// repository.ReservationRepo.
type Store interface {
	CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	RoomBookedTx(ctx context.Context, tx *sql.Tx, room, date string) (bool, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error)
	UpdateScheduleTx(ctx context.Context, tx *sql.Tx, id uint64, date, timeStr string, guests int) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// TxRunner executes a function inside a single database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}
