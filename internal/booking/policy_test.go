package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

func TestCheckCancellable(t *testing.T) {
	issued := time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		now     time.Time
		date    string
		wantErr error
	}{
		{
			name: "well before the dinner",
			now:  issued.Add(2 * time.Hour),
			date: "2026-09-10",
		},
		{
			name: "token 47h old still valid",
			now:  issued.Add(47 * time.Hour),
			date: "2026-09-12",
		},
		{
			name:    "token 49h old expired",
			now:     issued.Add(49 * time.Hour),
			date:    "2026-09-12",
			wantErr: ErrTokenExpired,
		},
		{
			name: "dinner day before the deadline",
			now:  time.Date(2026, 9, 10, 10, 59, 0, 0, time.UTC),
			date: "2026-09-10",
		},
		{
			name:    "dinner day at the deadline",
			now:     time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC),
			date:    "2026-09-10",
			wantErr: ErrCancellationWindowClosed,
		},
		{
			name:    "dinner already happened",
			now:     time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
			date:    "2026-09-09",
			wantErr: ErrCancellationWindowClosed,
		},
		{
			name:    "expiry reported before the closed window",
			now:     issued.Add(72 * time.Hour),
			date:    "2026-09-09",
			wantErr: ErrTokenExpired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &model.Reservation{
				Date:                tc.date,
				CancelTokenIssuedAt: issued,
			}
			err := CheckCancellable(tc.now, res)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CheckCancellable = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
