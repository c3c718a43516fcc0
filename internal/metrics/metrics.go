package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_reservation",
			Name:      "reservation_created_total",
			Help:      "Count of reservation create attempts by outcome.",
		},
		[]string{"restaurant", "outcome"},
	)

	reservationCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_reservation",
			Name:      "reservation_cancelled_total",
			Help:      "Count of cancellations by actor (guest or staff).",
		},
		[]string{"actor"},
	)

	emailJobPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_reservation",
			Name:      "email_job_published_total",
			Help:      "Count of email jobs handed to the broker by kind.",
		},
		[]string{"kind"},
	)

	txConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant_reservation",
			Name:      "booking_tx_conflict_total",
			Help:      "Count of bookings rejected after exhausting deadlock retries.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationCancelled, emailJobPublished, txConflicts)
	})
}

func IncReservationCreated(restaurant, outcome string) {
	reservationCreated.WithLabelValues(restaurant, outcome).Inc()
}

func IncReservationCancelled(actor string) {
	reservationCancelled.WithLabelValues(actor).Inc()
}

func IncEmailJobPublished(kind string) {
	emailJobPublished.WithLabelValues(kind).Inc()
}

func IncTxConflict() {
	txConflicts.Inc()
}
