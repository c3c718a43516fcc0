package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  A
// reservation row is the source of truth for who booked what; its guest
// count is mirrored into the capacity ledger by the booking coordinator.
// Rows are deleted on cancellation, so the UNIQUE (room, date) key also
// backstops the in-transaction duplicate check.  All timestamp fields are
// stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction-spanning callers.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, restaurant_id, date, time, room, guests,
	first_name, last_name, name, email, comments,
	main_courses, upsell_items, upsell_total_price,
	status, paid, email_status,
	cancel_token, cancel_token_issued_at,
	review_request_sent, review_request_sent_at, review_token, review_received, review_received_at,
	payment_updated_at, payment_updated_by, created_at`

// scanReservation maps one row onto a model.Reservation.  The scan
// argument abstracts over *sql.Row and *sql.Rows.
func scanReservation(scan func(dest ...any) error) (*model.Reservation, error) {
	var (
		res          model.Reservation
		coursesJSON  []byte
		upsellJSON   []byte
		reviewSentAt sql.NullTime
		reviewToken  sql.NullString
		reviewRecvAt sql.NullTime
		payUpdatedAt sql.NullTime
	)
	err := scan(
		&res.ID, &res.RestaurantID, &res.Date, &res.Time, &res.Room, &res.Guests,
		&res.FirstName, &res.LastName, &res.Name, &res.Email, &res.Comments,
		&coursesJSON, &upsellJSON, &res.UpsellTotalPrice,
		&res.Status, &res.Paid, &res.EmailStatus,
		&res.CancelToken, &res.CancelTokenIssuedAt,
		&res.Review.RequestSent, &reviewSentAt, &reviewToken, &res.Review.Received, &reviewRecvAt,
		&payUpdatedAt, &res.PaymentUpdatedBy, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(coursesJSON) > 0 {
		if err := json.Unmarshal(coursesJSON, &res.MainCourses); err != nil {
			return nil, fmt.Errorf("decode main_courses: %w", err)
		}
	}
	if res.MainCourses == nil {
		res.MainCourses = []string{}
	}
	if len(upsellJSON) > 0 {
		if err := json.Unmarshal(upsellJSON, &res.UpsellItems); err != nil {
			return nil, fmt.Errorf("decode upsell_items: %w", err)
		}
	}
	if res.UpsellItems == nil {
		res.UpsellItems = map[string]int{}
	}
	if reviewSentAt.Valid {
		t := reviewSentAt.Time
		res.Review.RequestSentAt = &t
	}
	if reviewToken.Valid {
		res.Review.Token = reviewToken.String
	}
	if reviewRecvAt.Valid {
		t := reviewRecvAt.Time
		res.Review.ReceivedAt = &t
	}
	if payUpdatedAt.Valid {
		t := payUpdatedAt.Time
		res.PaymentUpdatedAt = &t
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and CreatedAt on the
// provided record.  The caller must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	coursesJSON, err := json.Marshal(res.MainCourses)
	if err != nil {
		return fmt.Errorf("encode main_courses: %w", err)
	}
	upsellJSON, err := json.Marshal(res.UpsellItems)
	if err != nil {
		return fmt.Errorf("encode upsell_items: %w", err)
	}
	const q = `INSERT INTO reservations
		(restaurant_id, date, time, room, guests,
		 first_name, last_name, name, email, comments,
		 main_courses, upsell_items, upsell_total_price,
		 status, paid, email_status, cancel_token, cancel_token_issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.RestaurantID, res.Date, res.Time, res.Room, res.Guests,
		res.FirstName, res.LastName, res.Name, res.Email, res.Comments,
		coursesJSON, upsellJSON, res.UpsellTotalPrice,
		res.Status, res.Paid, res.EmailStatus,
		res.CancelToken, res.CancelTokenIssuedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the created_at default so callers see the stored value.
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// RoomBookedTx reports whether the room already holds a reservation for
// the date.  The lookup runs FOR UPDATE inside the booking transaction so
// that the duplicate check and the capacity check are evaluated against
// the same consistent snapshot.
func (r *ReservationRepo) RoomBookedTx(ctx context.Context, tx *sql.Tx, room, date string) (bool, error) {
	const q = `SELECT id FROM reservations WHERE room = ? AND date = ? LIMIT 1 FOR UPDATE`
	var id uint64
	err := tx.QueryRowContext(ctx, q, room, date).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID returns a reservation by primary key or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanReservation(row.Scan)
}

// GetForUpdateTx loads a reservation under a row lock inside the provided
// transaction.  Cancel and modify re-read through this method so a
// reservation can only be released once.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ? FOR UPDATE`
	row := tx.QueryRowContext(ctx, q, id)
	return scanReservation(row.Scan)
}

// FindByCancelToken resolves a guest's opaque cancellation token.
func (r *ReservationRepo) FindByCancelToken(ctx context.Context, token string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE cancel_token = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, token)
	return scanReservation(row.Scan)
}

// FindByReviewToken resolves a review token issued by the request sweep.
func (r *ReservationRepo) FindByReviewToken(ctx context.Context, token string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE review_token = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, token)
	return scanReservation(row.Scan)
}

// UpdateScheduleTx rewrites the mutable booking fields (date, time, guest
// count) within the provided transaction.  The coordinator has already
// applied the matching ledger deltas in the same transaction.
func (r *ReservationRepo) UpdateScheduleTx(ctx context.Context, tx *sql.Tx, id uint64, date, timeStr string, guests int) error {
	const q = `UPDATE reservations SET date = ?, time = ?, guests = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, date, timeStr, guests, id)
	return err
}

// DeleteTx removes a reservation within the provided transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM reservations WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// SetEmailStatus records the terminal outcome of the confirmation email
// for observability.  It is called by the email worker outside any booking
// transaction; delivery failures never affect the reservation itself.
func (r *ReservationRepo) SetEmailStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE reservations SET email_status = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, status, id)
	return err
}

// SetPaid flips the payment flag and records who changed it.
func (r *ReservationRepo) SetPaid(ctx context.Context, id uint64, paid bool, updatedBy string) error {
	const q = `UPDATE reservations SET paid = ?, payment_updated_at = UTC_TIMESTAMP(), payment_updated_by = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, paid, updatedBy, id)
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

// MarkReviewRequested stores the freshly minted review token and flips
// the request-sent guard.  The guard makes the daily sweep idempotent: a
// re-run skips rows where review_request_sent is already set.
func (r *ReservationRepo) MarkReviewRequested(ctx context.Context, id uint64, token string) error {
	const q = `UPDATE reservations
	           SET review_request_sent = 1, review_request_sent_at = UTC_TIMESTAMP(), review_token = ?
	           WHERE id = ? AND review_request_sent = 0`
	_, err := r.db.ExecContext(ctx, q, token, id)
	return err
}

// MarkReviewReceived flips the received guard after a review was stored.
func (r *ReservationRepo) MarkReviewReceived(ctx context.Context, id uint64) error {
	const q = `UPDATE reservations SET review_received = 1, review_received_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// DueForReviewRequest returns confirmed reservations for the given date
// whose review request has not been sent yet.
func (r *ReservationRepo) DueForReviewRequest(ctx context.Context, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + `
	           FROM reservations
	           WHERE status = ? AND review_request_sent = 0 AND date = ?`
	rows, err := r.db.QueryContext(ctx, q, model.StatusConfirmed, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ReservationFilter carries the staff listing filters.  Zero values (or
// "all") disable the corresponding clause.
type ReservationFilter struct {
	Page       int
	Limit      int
	Restaurant string
	Date       string
	FromDate   string
	ToDate     string
	Search     string // matched against guest name and room
}

// Pagination describes one page of a filtered listing.
type Pagination struct {
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// List returns reservations matching the filter, newest dinner date
// first, plus pagination metadata computed from the unfiltered count.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 50
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if f.Restaurant != "" && f.Restaurant != "all" {
		where = append(where, "restaurant_id = ?")
		args = append(args, f.Restaurant)
	}
	switch {
	case f.Date != "" && f.Date != "all":
		where = append(where, "date = ?")
		args = append(args, f.Date)
	case f.FromDate != "" && f.ToDate != "":
		where = append(where, "date >= ?", "date <= ?")
		args = append(args, f.FromDate, f.ToDate)
	case f.FromDate != "":
		where = append(where, "date >= ?")
		args = append(args, f.FromDate)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(room) LIKE ?)")
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations"+cond, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	q := `SELECT ` + reservationCols + ` FROM reservations` + cond +
		` ORDER BY date DESC, time, id LIMIT ? OFFSET ?`
	offset := (f.Page - 1) * f.Limit
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()
	items, err := collectReservations(rows)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := (total + f.Limit - 1) / f.Limit
	pg := Pagination{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: f.Page,
		PerPage:     f.Limit,
		HasNext:     f.Page < totalPages,
		HasPrev:     f.Page > 1,
	}
	return items, pg, nil
}

// ListRange returns all reservations with start <= date <= end, ordered
// for export (date, restaurant, time).
func (r *ReservationRepo) ListRange(ctx context.Context, start, end string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + `
	           FROM reservations
	           WHERE date >= ? AND date <= ?
	           ORDER BY date, restaurant_id, time, id`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// SumGuestsForDay totals the guests of live reservations for one ledger
// key.  Used by consistency checks and dashboards; the authoritative
// counter lives in the capacities table.
func (r *ReservationRepo) SumGuestsForDay(ctx context.Context, restaurantID, date string) (int, error) {
	const q = `SELECT COALESCE(SUM(guests), 0) FROM reservations WHERE restaurant_id = ? AND date = ? AND status = ?`
	var total int
	err := r.db.QueryRowContext(ctx, q, restaurantID, date, model.StatusConfirmed).Scan(&total)
	return total, err
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
