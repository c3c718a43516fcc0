package model

import "time"

// Capacity is one row of the per-restaurant-per-day seat ledger.  The pair
// (RestaurantID, Date) is the ledger key; ReservedGuests is the sum of
// guests across live reservations for that key and must never exceed
// Capacity after a committed write.
//
// Fields:
//  ID              – primary key identifier.
//  RestaurantID    – restaurant the seats belong to.
//  Date            – calendar date in YYYY-MM-DD form.
//  Capacity        – maximum seats bookable for the day.
//  ReservedGuests  – seats currently taken by confirmed reservations.
//  UpdatedAt       – last modification timestamp.
type Capacity struct {
	ID             uint64    `json:"-"`
	RestaurantID   string    `json:"restaurant"`
	Date           string    `json:"date"`
	Capacity       int       `json:"capacity"`
	ReservedGuests int       `json:"reserved_guests"`
	UpdatedAt      time.Time `json:"-"`
}

// Remaining reports the seats still available for the day, never negative.
func (c *Capacity) Remaining() int {
	r := c.Capacity - c.ReservedGuests
	if r < 0 {
		return 0
	}
	return r
}

// CapacityOverviewEntry is one cell of the staff dashboard grid: a
// restaurant × date pair with its capacity, reserved and remaining counts.
type CapacityOverviewEntry struct {
	Restaurant string `json:"restaurant"`
	Date       string `json:"date"`
	Capacity   int    `json:"capacity"`
	Reserved   int    `json:"reserved"`
	Remaining  int    `json:"remaining"`
}
