// Package booking implements the transactional protocol that keeps the
// capacity ledger and the reservation store consistent, plus the policy
// rules for guest self-service cancellation.
package booking

import (
	"errors"
	"fmt"
)

// ErrNoCapacityConfigured is returned when a booking targets a
// (restaurant, date) pair that has no ledger entry. Handlers translate
// this into an HTTP 409 response.
var ErrNoCapacityConfigured = errors.New("no capacity configured for this restaurant and date")

// ErrAlreadyCancelled is returned when a cancellation finds no active
// reservation row. Cancelling twice is not an error for the guest, but
// the ledger must not be decremented again.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")

// ErrTokenExpired is returned when a cancel token is presented more than
// 48 hours after it was issued.
var ErrTokenExpired = errors.New("cancellation token expired")

// ErrCancellationWindowClosed is returned when a guest tries to cancel
// after the same-day deadline has passed.
var ErrCancellationWindowClosed = errors.New("cancellation window closed")

// ErrTxConflict is returned when a booking transaction keeps deadlocking
// against concurrent bookings and the retry budget is exhausted. Handlers
// translate this into an HTTP 503 so the client can retry.
var ErrTxConflict = errors.New("booking conflict, please retry")

// CapacityExceededError reports that a booking asked for more guests than
// the day has left. Remaining is never negative.
type CapacityExceededError struct {
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("not enough capacity: %d seats remaining", e.Remaining)
}
