package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/booking"
	"github.com/seagullhotel/restaurant-reservation/internal/metrics"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// cancelStore resolves a cancel token to its reservation.
type cancelStore interface {
	FindByCancelToken(ctx context.Context, token string) (*model.Reservation, error)
}

// CancelHandler serves the guest self-service cancellation links from the
// confirmation email. Unlike the staff path, every action here is gated
// by the cancellation policy.
type CancelHandler struct {
	Store  cancelStore
	Booker Booker
	Now    func() time.Time
}

func NewCancelHandler(store cancelStore, b Booker) *CancelHandler {
	return &CancelHandler{Store: store, Booker: b, Now: time.Now}
}

// Lookup shows the reservation behind a cancel link so the frontend can
// render a confirmation page. The policy verdict is included so the page
// can explain why cancelling is no longer possible.
func (h *CancelHandler) Lookup(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Store.FindByCancelToken(ctx, c.Param("token"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	if err != nil {
		return writeBookingError(c, err)
	}

	resp := echo.Map{
		"restaurant":  res.RestaurantID,
		"date":        res.Date,
		"time":        res.Time,
		"room":        res.Room,
		"guests":      res.Guests,
		"name":        res.Name,
		"cancellable": true,
	}
	if perr := booking.CheckCancellable(h.Now(), res); perr != nil {
		resp["cancellable"] = false
		resp["reason"] = perr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel performs the guest cancellation. The policy runs first; a valid
// request then releases the seats through the coordinator, which handles
// repeated clicks on the same link idempotently.
func (h *CancelHandler) Cancel(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Store.FindByCancelToken(ctx, c.Param("token"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	if err != nil {
		return writeBookingError(c, err)
	}

	if perr := booking.CheckCancellable(h.Now(), res); perr != nil {
		return writeBookingError(c, perr)
	}

	if _, err := h.Booker.Cancel(ctx, res.ID); err != nil {
		if errors.Is(err, booking.ErrTxConflict) {
			metrics.IncTxConflict()
		}
		return writeBookingError(c, err)
	}
	metrics.IncReservationCancelled("guest")
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}
