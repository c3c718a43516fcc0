// Package router wires the HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/seagullhotel/restaurant-reservation/internal/config"
	"github.com/seagullhotel/restaurant-reservation/internal/handler"
	"github.com/seagullhotel/restaurant-reservation/internal/middleware"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Cancel       *handler.CancelHandler
	Capacities   *handler.CapacityHandler
	Reviews      *handler.ReviewHandler
	Restaurants  *handler.RestaurantHandler
	Export       *handler.ExportHandler
}

// Register mounts all routes. The public surface gets rate limiting and,
// on its read endpoints, the Redis response cache; staff endpoints sit
// behind JWT auth with per-group role checks.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	// Public surface used by the booking frontend.
	pub := e.Group("/v1", limiter)
	pub.GET("/restaurants", h.Restaurants.List, cache)
	pub.GET("/restaurants/:id", h.Restaurants.Get, cache)
	pub.GET("/restaurants/:id/config", h.Restaurants.GetConfig, cache)
	pub.GET("/configs", h.Restaurants.ListConfigs, cache)
	pub.GET("/availability", h.Capacities.Availability, cache)
	pub.POST("/reservations", h.Reservations.Create)
	pub.GET("/cancel/:token", h.Cancel.Lookup)
	pub.POST("/cancel/:token", h.Cancel.Cancel)
	pub.POST("/reviews/submit", h.Reviews.Submit)

	// Staff session management.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout)

	// Endpoints shared by all staff roles.
	staff := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	staff.Use(middleware.RequireRole(model.RoleAdmin, model.RoleReception, model.RoleKitchen, model.RoleAccounting))
	staff.GET("/me", h.Auth.Me)
	staff.GET("/reservations", h.Reservations.List)
	staff.GET("/reservations/:id", h.Reservations.Get)
	staff.GET("/capacities", h.Capacities.List)

	// Booking mutations from the desk.
	desk := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	desk.Use(middleware.RequireRole(model.RoleAdmin, model.RoleReception))
	desk.PUT("/reservations/:id", h.Reservations.Modify)
	desk.DELETE("/reservations/:id", h.Reservations.Delete)
	desk.PATCH("/reservations/:id/payment", h.Reservations.SetPayment)

	// Accounting export.
	accounting := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	accounting.Use(middleware.RequireRole(model.RoleAdmin, model.RoleAccounting))
	accounting.GET("/export/reservations", h.Export.Reservations)

	// Admin-only management.
	admin := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/capacities", h.Capacities.Set)
	admin.GET("/capacities/consistency", h.Capacities.Consistency)
	admin.POST("/restaurants", h.Restaurants.Upsert)
	admin.DELETE("/restaurants/:id", h.Restaurants.Delete)
	admin.PUT("/restaurants/:id/config", h.Restaurants.SaveConfig)
	admin.GET("/reviews/summary", h.Reviews.Summary)
	admin.GET("/reviews/log", h.Reviews.Log)

	// Scheduled tasks authenticate with the cron shared secret.
	tasks := e.Group("/v1/tasks", middleware.RequireCronSecret(cfg.CronSecret))
	tasks.POST("/send-review-requests", h.Reviews.SendRequests)
}
