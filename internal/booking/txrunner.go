package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Bookings on the same (restaurant, date) serialize on the capacity row
// lock, but create and cancel acquire the capacity and reservation locks
// in opposite order, so InnoDB may pick one transaction as a deadlock
// victim. Victims are retried a bounded number of times before the
// conflict is surfaced to the client.
const maxTxAttempts = 3

const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

type sqlRunner struct {
	db *sql.DB
}

// NewTxRunner returns a TxRunner that opens transactions on db and
// retries deadlock victims.
func NewTxRunner(db *sql.DB) TxRunner { return &sqlRunner{db: db} }

func (r *sqlRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryableTxError(err) {
			return err
		}
		if attempt >= maxTxAttempts {
			return ErrTxConflict
		}
	}
}

func (r *sqlRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func retryableTxError(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}
