package model

import "time"

// RestaurantReview is a guest's post-dinner rating for a restaurant,
// submitted through a single-use review token.  At most one review exists
// per reservation.
type RestaurantReview struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservationId"`
	RestaurantID  string    `json:"restaurantId"`
	Rating        int       `json:"rating"` // 1..10
	Comment       *string   `json:"comment"`
	GuestName     string    `json:"guestName"`
	GuestEmail    string    `json:"guestEmail"`
	Room          string    `json:"room"`
	DinnerDate    string    `json:"dinnerDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReviewSummary aggregates ratings per restaurant for the analytics
// dashboard.
type ReviewSummary struct {
	RestaurantID  string  `json:"restaurantId"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}
