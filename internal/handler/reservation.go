package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/booking"
	"github.com/seagullhotel/restaurant-reservation/internal/metrics"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/queue"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// defaultMaxGuests applies when a restaurant has no booking configuration.
const defaultMaxGuests = 10

// ReservationHandler serves the guest booking endpoint and the staff
// reservation views.
type ReservationHandler struct {
	Booker       Booker
	Reservations *repository.ReservationRepo
	Restaurants  *repository.RestaurantRepo
	Publish      EmailPublisher
}

func NewReservationHandler(b Booker, res *repository.ReservationRepo, rst *repository.RestaurantRepo, pub EmailPublisher) *ReservationHandler {
	return &ReservationHandler{Booker: b, Reservations: res, Restaurants: rst, Publish: pub}
}

type createReservationReq struct {
	Restaurant  string         `json:"restaurant"`
	Date        string         `json:"date"`
	Time        string         `json:"time"`
	Room        string         `json:"room"`
	Guests      int            `json:"guests"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	Comments    string         `json:"comments"`
	MainCourses []string       `json:"main_courses"`
	UpsellItems map[string]int `json:"upsell_items"`
}

// Create books a table. All validation runs before the booking
// transaction starts; only capacity, room uniqueness and deadlock
// conflicts can fail past this point.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	req.Restaurant = strings.ToLower(strings.TrimSpace(req.Restaurant))
	req.Room = strings.TrimSpace(req.Room)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if req.Restaurant == "" || req.Room == "" || req.Email == "" || req.FirstName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant, room, first_name and email are required"})
	}
	if !validDate(req.Date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if req.Date < time.Now().UTC().Format("2006-01-02") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is in the past"})
	}
	if !validTime(req.Time) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rst, err := h.Restaurants.Get(ctx, req.Restaurant)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown restaurant"})
	}
	if err != nil {
		return writeBookingError(c, err)
	}
	if !rst.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant is not taking bookings"})
	}

	cfg, err := h.Restaurants.GetConfig(ctx, req.Restaurant)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return writeBookingError(c, err)
	}

	maxGuests := defaultMaxGuests
	if cfg != nil && cfg.MaxGuestsPerBooking > 0 {
		maxGuests = cfg.MaxGuestsPerBooking
	}
	if req.Guests < 1 || req.Guests > maxGuests {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("guests must be between 1 and %d", maxGuests),
		})
	}

	courses, upsells, total, verr := validateMenu(cfg, req.Guests, req.MainCourses, req.UpsellItems)
	if verr != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr})
	}

	res := &model.Reservation{
		RestaurantID:     req.Restaurant,
		Date:             req.Date,
		Time:             req.Time,
		Room:             req.Room,
		Guests:           req.Guests,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Name:             strings.TrimSpace(req.FirstName + " " + req.LastName),
		Email:            req.Email,
		Comments:         strings.TrimSpace(req.Comments),
		MainCourses:      courses,
		UpsellItems:      upsells,
		UpsellTotalPrice: total,
	}

	if err := h.Booker.Create(ctx, res); err != nil {
		if errors.Is(err, booking.ErrTxConflict) {
			metrics.IncTxConflict()
		}
		metrics.IncReservationCreated(req.Restaurant, "rejected")
		return writeBookingError(c, err)
	}
	metrics.IncReservationCreated(req.Restaurant, "created")

	h.publishConfirmation(res)
	return c.JSON(http.StatusCreated, res)
}

// publishConfirmation enqueues the confirmation email. Best effort: the
// booking is already committed and a broker outage must not undo it.
func (h *ReservationHandler) publishConfirmation(res *model.Reservation) {
	job := queue.EmailJob{
		Kind:          queue.KindConfirmation,
		ReservationID: res.ID,
		To:            res.Email,
		Name:          res.Name,
		Restaurant:    res.RestaurantID,
		Room:          res.Room,
		Date:          res.Date,
		Time:          res.Time,
		Guests:        res.Guests,
		MainCourses:   res.MainCourses,
		UpsellItems:   res.UpsellItems,
		UpsellTotal:   res.UpsellTotalPrice,
		CancelToken:   res.CancelToken,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Publish(ctx, job); err != nil {
		log.Printf("reservation: publish confirmation email reservation=%d: %v", res.ID, err)
		return
	}
	metrics.IncEmailJobPublished(queue.KindConfirmation)
}

// validateMenu checks the course selection and cleans the upsell order
// against the restaurant's configuration. Returns a human-readable error
// string when validation fails.
func validateMenu(cfg *model.RestaurantConfig, guests int, courses []string, upsells map[string]int) ([]string, map[string]int, float64, string) {
	cleanCourses := []string{}
	if cfg != nil && cfg.HasMainCourse {
		if len(courses) != guests {
			return nil, nil, 0, "one main course per guest is required"
		}
		available := make(map[string]bool, len(cfg.MainCourses))
		for _, mc := range cfg.MainCourses {
			if mc.Available {
				available[strings.ToLower(mc.ID)] = true
			}
		}
		for _, course := range courses {
			key := strings.ToLower(strings.TrimSpace(course))
			if !available[key] {
				return nil, nil, 0, fmt.Sprintf("unknown main course %q", course)
			}
			cleanCourses = append(cleanCourses, key)
		}
	}

	cleanUpsells := map[string]int{}
	var total float64
	if cfg != nil && cfg.HasUpsells && len(upsells) > 0 {
		price := make(map[string]float64, len(cfg.UpsellItems))
		for _, it := range cfg.UpsellItems {
			price[strings.ToLower(it.ID)] = it.Price
			price[strings.ToLower(it.Label)] = it.Price
		}
		for name, qty := range upsells {
			if qty <= 0 {
				continue
			}
			p, ok := price[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, nil, 0, fmt.Sprintf("unknown item %q", name)
			}
			cleanUpsells[name] = qty
			total += p * float64(qty)
		}
	}
	return cleanCourses, cleanUpsells, total, ""
}

// List serves the staff reservation table with filters and pagination.
func (h *ReservationHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	f := repository.ReservationFilter{
		Page:       page,
		Limit:      limit,
		Restaurant: strings.ToLower(c.QueryParam("restaurant")),
		Date:       c.QueryParam("date"),
		FromDate:   c.QueryParam("from"),
		ToDate:     c.QueryParam("to"),
		Search:     c.QueryParam("search"),
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, pg, err := h.Reservations.List(ctx, f)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items, "pagination": pg})
}

// Get returns one reservation for the staff detail view.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type modifyReservationReq struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Guests int    `json:"guests"`
}

// Modify reschedules a reservation on behalf of the guest. The capacity
// swap runs in one transaction; on success the confirmation email is sent
// again with the updated details.
func (h *ReservationHandler) Modify(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req modifyReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !validDate(req.Date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if !validTime(req.Time) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}
	if req.Guests < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be positive"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Booker.Modify(ctx, id, req.Date, req.Time, req.Guests)
	if err != nil {
		if errors.Is(err, booking.ErrTxConflict) {
			metrics.IncTxConflict()
		}
		return writeBookingError(c, err)
	}

	h.publishConfirmation(res)
	return c.JSON(http.StatusOK, res)
}

// Delete cancels a reservation from the staff side. The cancellation
// policy does not apply to staff.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Booker.Cancel(ctx, id); err != nil {
		if errors.Is(err, booking.ErrTxConflict) {
			metrics.IncTxConflict()
		}
		return writeBookingError(c, err)
	}
	metrics.IncReservationCancelled("staff")
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}

type paymentReq struct {
	Paid bool `json:"paid"`
}

// SetPayment flips the paid flag (reception and admin).
func (h *ReservationHandler) SetPayment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	updatedBy := strconv.FormatUint(staffID(c), 10)
	if err := h.Reservations.SetPaid(ctx, id, req.Paid, updatedBy); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "updated", "paid": req.Paid})
}
