package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// RestaurantHandler serves the public restaurant catalogue and the admin
// configuration endpoints.
type RestaurantHandler struct {
	Restaurants *repository.RestaurantRepo
}

func NewRestaurantHandler(r *repository.RestaurantRepo) *RestaurantHandler {
	return &RestaurantHandler{Restaurants: r}
}

// List returns all restaurants. Guests see only active ones; staff pass
// ?all=true for the full set.
func (h *RestaurantHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	all, err := h.Restaurants.List(ctx)
	if err != nil {
		return writeBookingError(c, err)
	}
	if c.QueryParam("all") == "true" {
		return c.JSON(http.StatusOK, all)
	}
	active := make([]model.Restaurant, 0, len(all))
	for _, r := range all {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return c.JSON(http.StatusOK, active)
}

// Get returns one restaurant.
func (h *RestaurantHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	r, err := h.Restaurants.Get(ctx, strings.ToLower(c.Param("id")))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Upsert creates or replaces a restaurant (admin).
func (h *RestaurantHandler) Upsert(c echo.Context) error {
	var r model.Restaurant
	if err := c.Bind(&r); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	r.ID = strings.ToLower(strings.TrimSpace(r.ID))
	if r.ID == "" || strings.TrimSpace(r.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and name required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Restaurants.Upsert(ctx, &r); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Delete removes a restaurant (admin).
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id := strings.ToLower(strings.TrimSpace(c.Param("id")))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Restaurants.Delete(ctx, id); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}

// ListConfigs returns every restaurant's booking configuration keyed by
// restaurant id. The booking page loads this once.
func (h *RestaurantHandler) ListConfigs(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	cfgs, err := h.Restaurants.ListConfigs(ctx)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, cfgs)
}

// GetConfig returns one restaurant's booking configuration.
func (h *RestaurantHandler) GetConfig(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	cfg, err := h.Restaurants.GetConfig(ctx, strings.ToLower(c.Param("id")))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// SaveConfig creates or replaces a restaurant's booking configuration
// (admin).
func (h *RestaurantHandler) SaveConfig(c echo.Context) error {
	var cfg model.RestaurantConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cfg.RestaurantID = strings.ToLower(c.Param("id"))
	if cfg.MaxGuestsPerBooking < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_guests_per_booking must be positive"})
	}
	if !validTime(cfg.OpeningTime) || !validTime(cfg.ClosingTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "opening/closing time must be HH:MM"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	exists, err := h.Restaurants.Exists(ctx, cfg.RestaurantID)
	if err != nil {
		return writeBookingError(c, err)
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown restaurant"})
	}
	if err := h.Restaurants.SaveConfig(ctx, &cfg); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}
