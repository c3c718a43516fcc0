// Package handler contains the Echo HTTP handlers for the reservation
// API: guest booking and cancellation, staff listings and capacity
// management, reviews, restaurant configuration and exports.
package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/booking"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/queue"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// Booker is the coordinator seam; handler tests swap in a fake.
type Booker interface {
	Create(ctx context.Context, res *model.Reservation) error
	Modify(ctx context.Context, id uint64, newDate, newTime string, newGuests int) (*model.Reservation, error)
	Cancel(ctx context.Context, id uint64) (*model.Reservation, error)
}

// EmailPublisher hands an email job to the broker. Publishing is best
// effort: callers log failures and move on.
type EmailPublisher func(ctx context.Context, job queue.EmailJob) error

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

func validDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validTime(s string) bool {
	if !timeRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// dbCtx bounds repository calls made from a request.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// staffID extracts the authenticated staff id injected by JWTAuth. The
// sub claim arrives as a JSON number.
func staffID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// writeBookingError maps domain errors onto HTTP responses. Validation
// failures are handled before a transaction starts, so everything here
// came out of the coordinator or a repository.
func writeBookingError(c echo.Context, err error) error {
	var exceeded *booking.CapacityExceededError
	switch {
	case errors.As(err, &exceeded):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough capacity",
			"remaining": exceeded.Remaining,
		})
	case errors.Is(err, booking.ErrNoCapacityConfigured):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no capacity configured for this date"})
	case errors.Is(err, repository.ErrDuplicateRoomBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already has a reservation for this date"})
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation already cancelled"})
	case errors.Is(err, booking.ErrTokenExpired):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cancellation link expired"})
	case errors.Is(err, booking.ErrCancellationWindowClosed):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cancellation window closed"})
	case errors.Is(err, booking.ErrTxConflict):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking conflict, please retry"})
	case errors.Is(err, repository.ErrCapacityTooLow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity below reserved guests"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
