// Package queue defines the email job payload exchanged over the message
// broker and the background consumer that delivers it.
package queue

// EmailQueueName is the durable queue guest emails flow through.
const EmailQueueName = "reservation.emails"

// Email job kinds.
const (
	KindConfirmation  = "confirmation"
	KindReviewRequest = "review_request"
)

// EmailJob is published after a booking commits (confirmation) or by the
// review sweep (review_request). It snapshots everything needed to render
// the email so the consumer never queries the primary database.
type EmailJob struct {
	Kind          string         `json:"kind"`
	ReservationID uint64         `json:"reservation_id"`
	To            string         `json:"to"`
	Name          string         `json:"name"`
	Restaurant    string         `json:"restaurant"`
	Room          string         `json:"room"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	Guests        int            `json:"guests"`
	MainCourses   []string       `json:"main_courses,omitempty"`
	UpsellItems   map[string]int `json:"upsell_items,omitempty"`
	UpsellTotal   float64        `json:"upsell_total,omitempty"`
	CancelToken   string         `json:"cancel_token,omitempty"`
	ReviewToken   string         `json:"review_token,omitempty"`
	EnqueuedAt    string         `json:"enqueued_at"`
}
