package booking

import (
	"time"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// CancelTokenTTL is how long a guest's cancellation link stays valid
// after the confirmation email is sent.
const CancelTokenTTL = 48 * time.Hour

// cancelDeadlineHourUTC is the same-day cutoff: once the kitchen starts
// planning the dinner service, guests can no longer cancel online.
const cancelDeadlineHourUTC = 11

// CheckCancellable decides whether a guest may still cancel the
// reservation at the given instant. It is a pure function of its inputs:
// nil means the cancellation may proceed, otherwise ErrTokenExpired or
// ErrCancellationWindowClosed explains the refusal. Token expiry is
// checked before the deadline so that stale links always report the same
// reason.
func CheckCancellable(now time.Time, res *model.Reservation) error {
	now = now.UTC()
	if now.Sub(res.CancelTokenIssuedAt.UTC()) > CancelTokenTTL {
		return ErrTokenExpired
	}
	today := now.Format("2006-01-02")
	if res.Date < today {
		return ErrCancellationWindowClosed
	}
	if res.Date == today && now.Hour() >= cancelDeadlineHourUTC {
		return ErrCancellationWindowClosed
	}
	return nil
}
