package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// ReviewRepo stores guest reviews submitted through single-use review
// tokens.  The UNIQUE key on reservation_id guarantees at most one review
// per reservation even if the received guard on the reservation races.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// mysqlDuplicateEntry is the server error code for a unique-key violation.
const mysqlDuplicateEntry = 1062

// Create inserts a review.  A duplicate insert for the same reservation
// is swallowed and reported as success, keeping review submission
// idempotent end to end.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.RestaurantReview) error {
	const q = `INSERT INTO restaurant_reviews
		(reservation_id, restaurant_id, rating, comment, guest_name, guest_email, room, dinner_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		rv.ReservationID, rv.RestaurantID, rv.Rating, rv.Comment,
		rv.GuestName, rv.GuestEmail, rv.Room, rv.DinnerDate,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return nil
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// Summary aggregates review counts and average ratings per restaurant.
func (r *ReviewRepo) Summary(ctx context.Context) ([]model.ReviewSummary, error) {
	const q = `SELECT restaurant_id, COUNT(*), AVG(rating)
	           FROM restaurant_reviews
	           GROUP BY restaurant_id
	           ORDER BY restaurant_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReviewSummary, 0)
	for rows.Next() {
		var s model.ReviewSummary
		if err := rows.Scan(&s.RestaurantID, &s.Count, &s.AverageRating); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecent returns the newest reviews for the staff log view.
func (r *ReviewRepo) ListRecent(ctx context.Context, limit int) ([]model.RestaurantReview, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, reservation_id, restaurant_id, rating, comment,
	                  guest_name, guest_email, room, dinner_date, created_at
	           FROM restaurant_reviews
	           ORDER BY created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RestaurantReview, 0)
	for rows.Next() {
		var rv model.RestaurantReview
		var comment sql.NullString
		if err := rows.Scan(&rv.ID, &rv.ReservationID, &rv.RestaurantID, &rv.Rating, &comment,
			&rv.GuestName, &rv.GuestEmail, &rv.Room, &rv.DinnerDate, &rv.CreatedAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			c := comment.String
			rv.Comment = &c
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
