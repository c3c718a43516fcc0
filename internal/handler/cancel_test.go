package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/booking"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

type fakeCancelStore struct {
	byToken map[string]*model.Reservation
}

func (s *fakeCancelStore) FindByCancelToken(_ context.Context, token string) (*model.Reservation, error) {
	res, ok := s.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

type fakeBooker struct {
	cancelled   map[uint64]bool
	cancelErr   error
	cancelCalls int
}

func (b *fakeBooker) Create(_ context.Context, _ *model.Reservation) error { return nil }

func (b *fakeBooker) Modify(_ context.Context, _ uint64, _, _ string, _ int) (*model.Reservation, error) {
	return nil, nil
}

func (b *fakeBooker) Cancel(_ context.Context, id uint64) (*model.Reservation, error) {
	b.cancelCalls++
	if b.cancelErr != nil {
		return nil, b.cancelErr
	}
	if b.cancelled == nil {
		b.cancelled = map[uint64]bool{}
	}
	if b.cancelled[id] {
		return nil, booking.ErrAlreadyCancelled
	}
	b.cancelled[id] = true
	return &model.Reservation{ID: id, Status: model.StatusCancelled}, nil
}

func cancelRequest(h *CancelHandler, method, token string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues(token)
	var err error
	if method == http.MethodGet {
		err = h.Lookup(c)
	} else {
		err = h.Cancel(c)
	}
	if err != nil {
		rec.Code = http.StatusInternalServerError
	}
	return rec
}

func freshReservation(now time.Time) *model.Reservation {
	return &model.Reservation{
		ID:                  7,
		RestaurantID:        "seagull",
		Date:                now.AddDate(0, 0, 1).Format("2006-01-02"),
		Time:                "19:00",
		Room:                "212",
		Guests:              2,
		Name:                "Ada Lovelace",
		Status:              model.StatusConfirmed,
		CancelToken:         "tok-1",
		CancelTokenIssuedAt: now.Add(-time.Hour),
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	res := freshReservation(now)
	booker := &fakeBooker{}
	h := &CancelHandler{
		Store:  &fakeCancelStore{byToken: map[string]*model.Reservation{"tok-1": res}},
		Booker: booker,
		Now:    func() time.Time { return now },
	}

	rec := cancelRequest(h, http.MethodPost, "tok-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if booker.cancelCalls != 1 {
		t.Fatalf("cancel calls = %d, want 1", booker.cancelCalls)
	}
	if !booker.cancelled[res.ID] {
		t.Fatalf("reservation %d not cancelled", res.ID)
	}
}

func TestCancelSecondClickReports404(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	res := freshReservation(now)
	booker := &fakeBooker{}
	h := &CancelHandler{
		Store:  &fakeCancelStore{byToken: map[string]*model.Reservation{"tok-1": res}},
		Booker: booker,
		Now:    func() time.Time { return now },
	}

	if rec := cancelRequest(h, http.MethodPost, "tok-1"); rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d, want 200", rec.Code)
	}
	rec := cancelRequest(h, http.MethodPost, "tok-1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second cancel status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already cancelled") {
		t.Fatalf("body = %s, want already-cancelled message", rec.Body.String())
	}
}

func TestCancelUnknownToken(t *testing.T) {
	h := &CancelHandler{
		Store:  &fakeCancelStore{byToken: map[string]*model.Reservation{}},
		Booker: &fakeBooker{},
		Now:    time.Now,
	}
	if rec := cancelRequest(h, http.MethodPost, "nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCancelPolicyGate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		mutate   func(r *model.Reservation)
		at       time.Time
		wantCode int
	}{
		{
			name:     "expired token",
			mutate:   func(r *model.Reservation) { r.CancelTokenIssuedAt = now.Add(-49 * time.Hour) },
			at:       now,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "same day after deadline",
			mutate:   func(r *model.Reservation) { r.Date = "2026-03-10" },
			at:       time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "same day before deadline",
			mutate:   func(r *model.Reservation) { r.Date = "2026-03-10" },
			at:       now,
			wantCode: http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := freshReservation(now)
			tc.mutate(res)
			booker := &fakeBooker{}
			h := &CancelHandler{
				Store:  &fakeCancelStore{byToken: map[string]*model.Reservation{"tok-1": res}},
				Booker: booker,
				Now:    func() time.Time { return tc.at },
			}
			rec := cancelRequest(h, http.MethodPost, "tok-1")
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantCode != http.StatusOK && booker.cancelCalls != 0 {
				t.Fatalf("booker called %d times on rejected cancel", booker.cancelCalls)
			}
		})
	}
}

func TestLookupReportsPolicyVerdict(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	res := freshReservation(now)
	res.CancelTokenIssuedAt = now.Add(-50 * time.Hour)
	h := &CancelHandler{
		Store:  &fakeCancelStore{byToken: map[string]*model.Reservation{"tok-1": res}},
		Booker: &fakeBooker{},
		Now:    func() time.Time { return now },
	}

	rec := cancelRequest(h, http.MethodGet, "tok-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"cancellable":false`) {
		t.Fatalf("body = %s, want cancellable false", body)
	}
	if !strings.Contains(body, "expired") {
		t.Fatalf("body = %s, want expiry reason", body)
	}
}
