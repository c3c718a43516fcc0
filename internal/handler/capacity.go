package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// CapacityHandler manages the capacity ledger views: admin capacity
// setting, the staff dashboard and the public availability grid.
type CapacityHandler struct {
	Capacities   *repository.CapacityRepo
	Restaurants  *repository.RestaurantRepo
	Reservations *repository.ReservationRepo
	WindowDays   int
}

func NewCapacityHandler(cap *repository.CapacityRepo, rst *repository.RestaurantRepo, res *repository.ReservationRepo, windowDays int) *CapacityHandler {
	return &CapacityHandler{Capacities: cap, Restaurants: rst, Reservations: res, WindowDays: windowDays}
}

type setCapacityReq struct {
	Restaurant string `json:"restaurant"`
	Date       string `json:"date"`
	Capacity   int    `json:"capacity"`
}

// Set creates or updates a day's capacity. Only dates within the booking
// window may be configured, and capacity can never drop below the guests
// already reserved.
func (h *CapacityHandler) Set(c echo.Context) error {
	var req setCapacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Restaurant = strings.ToLower(strings.TrimSpace(req.Restaurant))
	if req.Restaurant == "" || req.Capacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant and non-negative capacity required"})
	}
	if !validDate(req.Date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	today := time.Now().UTC().Format("2006-01-02")
	lastDay := time.Now().UTC().AddDate(0, 0, h.WindowDays).Format("2006-01-02")
	if req.Date < today || req.Date > lastDay {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("date must be within the next %d days", h.WindowDays),
		})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	exists, err := h.Restaurants.Exists(ctx, req.Restaurant)
	if err != nil {
		return writeBookingError(c, err)
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown restaurant"})
	}

	if err := h.Capacities.SetCapacity(ctx, req.Restaurant, req.Date, req.Capacity); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "saved"})
}

// List returns every ledger entry keyed "{restaurant}_{date}" for the
// staff capacity dashboard.
func (h *CapacityHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	entries, err := h.Capacities.ListAll(ctx)
	if err != nil {
		return writeBookingError(c, err)
	}
	out := make(map[string]echo.Map, len(entries))
	for _, e := range entries {
		key := fmt.Sprintf("%s_%s", e.RestaurantID, e.Date)
		out[key] = echo.Map{
			"capacity":        e.Capacity,
			"reserved_guests": e.ReservedGuests,
			"remaining":       e.Remaining(),
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Availability serves the public booking page: remaining seats per
// restaurant for each day of the window. Days without a ledger entry are
// reported as closed.
func (h *CapacityHandler) Availability(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	filter := strings.ToLower(strings.TrimSpace(c.QueryParam("restaurant")))

	restaurants, err := h.Restaurants.List(ctx)
	if err != nil {
		return writeBookingError(c, err)
	}

	start := time.Now().UTC().Format("2006-01-02")
	end := time.Now().UTC().AddDate(0, 0, h.WindowDays+1).Format("2006-01-02")
	entries, err := h.Capacities.ListRange(ctx, start, end)
	if err != nil {
		return writeBookingError(c, err)
	}
	byKey := make(map[string]model.Capacity, len(entries))
	for _, e := range entries {
		byKey[e.RestaurantID+"_"+e.Date] = e
	}

	days := make([]string, 0, h.WindowDays+1)
	for i := 0; i <= h.WindowDays; i++ {
		days = append(days, time.Now().UTC().AddDate(0, 0, i).Format("2006-01-02"))
	}

	out := make(map[string]map[string]echo.Map)
	for _, rst := range restaurants {
		if !rst.IsActive {
			continue
		}
		if filter != "" && rst.ID != filter {
			continue
		}
		grid := make(map[string]echo.Map, len(days))
		for _, day := range days {
			if e, ok := byKey[rst.ID+"_"+day]; ok {
				grid[day] = echo.Map{"open": true, "remaining": e.Remaining()}
			} else {
				grid[day] = echo.Map{"open": false, "remaining": 0}
			}
		}
		out[rst.ID] = grid
	}
	if filter != "" && len(out) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown restaurant"})
	}
	return c.JSON(http.StatusOK, out)
}

// Consistency reports, for one ledger key, the authoritative counter next
// to the live sum over reservations. Admin debugging aid.
func (h *CapacityHandler) Consistency(c echo.Context) error {
	restaurant := strings.ToLower(strings.TrimSpace(c.QueryParam("restaurant")))
	date := c.QueryParam("date")
	if restaurant == "" || !validDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant and date required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	entry, err := h.Capacities.Get(ctx, restaurant, date)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no capacity configured"})
	}
	if err != nil {
		return writeBookingError(c, err)
	}
	sum, err := h.Reservations.SumGuestsForDay(ctx, restaurant, date)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"capacity":        entry.Capacity,
		"reserved_guests": entry.ReservedGuests,
		"reservation_sum": sum,
		"consistent":      entry.ReservedGuests == sum,
	})
}
