package model

import "time"

// Reservation statuses and email delivery states as stored in the
// reservations table.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	EmailPending = "pending"
	EmailSent    = "sent"
	EmailFailed  = "failed"
)

// Review tracks the post-dinner feedback cycle for a reservation.  A
// request is sent at most once (RequestSent guard) and a review is
// accepted at most once (Received guard); resubmission with the same
// token is a no-op.
type Review struct {
	RequestSent   bool       `json:"requestSent"`
	RequestSentAt *time.Time `json:"requestSentAt,omitempty"`
	Token         string     `json:"-"`
	Received      bool       `json:"received"`
	ReceivedAt    *time.Time `json:"receivedAt,omitempty"`
}

// Reservation records a room's dinner booking at one of the hotel
// restaurants.  A room may hold at most one active reservation per date,
// and each reservation contributes its Guests count to the capacity
// ledger entry for (RestaurantID, Date).
//
// Fields:
//  ID                  – primary key identifier.
//  RestaurantID        – restaurant being booked.
//  Date                – dinner date, YYYY-MM-DD.
//  Time                – dinner time, HH:MM.
//  Room                – hotel room making the booking.
//  Guests              – number of guests (1..max per restaurant config).
//  Name                – guest display name ("First Last").
//  Email               – contact address for confirmation emails.
//  MainCourses         – one selected course per guest where required.
//  UpsellItems         – optional extras, item label -> quantity.
//  UpsellTotalPrice    – computed total for the extras.
//  Status              – confirmed or cancelled.
//  Paid                – payment flag maintained by reception.
//  EmailStatus         – pending/sent/failed for the confirmation email.
//  CancelToken         – opaque token for guest self-service cancellation.
//  CancelTokenIssuedAt – issue time; tokens expire after 48 hours.
//  Review              – review request/submission tracking.
type Reservation struct {
	ID                  uint64         `json:"id"`
	RestaurantID        string         `json:"restaurant"`
	Date                string         `json:"date"`
	Time                string         `json:"time"`
	Room                string         `json:"room"`
	Guests              int            `json:"guests"`
	FirstName           string         `json:"first_name"`
	LastName            string         `json:"last_name"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Comments            string         `json:"comments"`
	MainCourses         []string       `json:"main_courses"`
	UpsellItems         map[string]int `json:"upsell_items"`
	UpsellTotalPrice    float64        `json:"upsell_total_price"`
	Status              string         `json:"status"`
	Paid                bool           `json:"paid"`
	EmailStatus         string         `json:"email_status"`
	CancelToken         string         `json:"-"`
	CancelTokenIssuedAt time.Time      `json:"-"`
	Review              Review         `json:"review"`
	PaymentUpdatedAt    *time.Time     `json:"payment_updated_at,omitempty"`
	PaymentUpdatedBy    string         `json:"payment_updated_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}
