package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/booking"
	"github.com/seagullhotel/restaurant-reservation/internal/config"
	"github.com/seagullhotel/restaurant-reservation/internal/database"
	"github.com/seagullhotel/restaurant-reservation/internal/handler"
	"github.com/seagullhotel/restaurant-reservation/internal/mailer"
	"github.com/seagullhotel/restaurant-reservation/internal/metrics"
	"github.com/seagullhotel/restaurant-reservation/internal/queue"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
	"github.com/seagullhotel/restaurant-reservation/internal/router"
	queue_publisher "github.com/seagullhotel/restaurant-reservation/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	metrics.Register()

	capacities := repository.NewCapacityRepo(db)
	reservations := repository.NewReservationRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	reviews := repository.NewReviewRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	coordinator := booking.NewCoordinator(capacities, reservations, booking.NewTxRunner(db))

	sender := mailer.NewMailgun(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.EmailFrom)
	consumer := queue.NewEmailConsumer(queue_publisher.BrokerURL(), sender, reservations, cfg.FrontendBaseURL)
	go consumer.Start()

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Reservations: handler.NewReservationHandler(coordinator, reservations, restaurants, queue_publisher.PublishEmailJob),
		Cancel:       handler.NewCancelHandler(reservations, coordinator),
		Capacities:   handler.NewCapacityHandler(capacities, restaurants, reservations, cfg.CapacityWindowDays),
		Reviews:      handler.NewReviewHandler(reservations, reviews, queue_publisher.PublishEmailJob, cfg.LocalTZ),
		Restaurants:  handler.NewRestaurantHandler(restaurants),
		Export:       handler.NewExportHandler(reservations),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
