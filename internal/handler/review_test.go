package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/queue"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

type fakeReviewStore struct {
	byToken   map[string]*model.Reservation
	due       []model.Reservation
	requested map[uint64]string
	received  map[uint64]bool
}

func (s *fakeReviewStore) FindByReviewToken(_ context.Context, token string) (*model.Reservation, error) {
	res, ok := s.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *fakeReviewStore) MarkReviewRequested(_ context.Context, id uint64, token string) error {
	if s.requested == nil {
		s.requested = map[uint64]string{}
	}
	s.requested[id] = token
	return nil
}

func (s *fakeReviewStore) MarkReviewReceived(_ context.Context, id uint64) error {
	if s.received == nil {
		s.received = map[uint64]bool{}
	}
	s.received[id] = true
	return nil
}

func (s *fakeReviewStore) DueForReviewRequest(_ context.Context, _ string) ([]model.Reservation, error) {
	return s.due, nil
}

type fakeReviewSink struct {
	created []model.RestaurantReview
}

func (s *fakeReviewSink) Create(_ context.Context, rv *model.RestaurantReview) error {
	s.created = append(s.created, *rv)
	return nil
}

func (s *fakeReviewSink) Summary(_ context.Context) ([]model.ReviewSummary, error) {
	return nil, nil
}

func (s *fakeReviewSink) ListRecent(_ context.Context, _ int) ([]model.RestaurantReview, error) {
	return nil, nil
}

func submitReview(h *ReviewHandler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/submit", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		rec.Code = http.StatusInternalServerError
	}
	return rec
}

func TestSubmitStoresReview(t *testing.T) {
	res := &model.Reservation{
		ID:           11,
		RestaurantID: "seagull",
		Date:         "2026-03-09",
		Room:         "212",
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Review:       model.Review{RequestSent: true, Token: "rv-1"},
	}
	store := &fakeReviewStore{byToken: map[string]*model.Reservation{"rv-1": res}}
	sink := &fakeReviewSink{}
	h := &ReviewHandler{Store: store, Reviews: sink, Now: time.Now}

	rec := submitReview(h, `{"token":"rv-1","rating":8,"comment":" great evening "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(sink.created) != 1 {
		t.Fatalf("created %d reviews, want 1", len(sink.created))
	}
	rv := sink.created[0]
	if rv.ReservationID != 11 || rv.RestaurantID != "seagull" || rv.Rating != 8 {
		t.Fatalf("stored review = %+v", rv)
	}
	if rv.Comment == nil || *rv.Comment != "great evening" {
		t.Fatalf("comment = %v, want trimmed text", rv.Comment)
	}
	if !store.received[11] {
		t.Fatal("received guard not set")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	res := &model.Reservation{
		ID:     11,
		Review: model.Review{RequestSent: true, Token: "rv-1", Received: true},
	}
	store := &fakeReviewStore{byToken: map[string]*model.Reservation{"rv-1": res}}
	sink := &fakeReviewSink{}
	h := &ReviewHandler{Store: store, Reviews: sink, Now: time.Now}

	rec := submitReview(h, `{"token":"rv-1","rating":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already received") {
		t.Fatalf("body = %s, want already-received message", rec.Body.String())
	}
	if len(sink.created) != 0 {
		t.Fatalf("created %d reviews on resubmission, want 0", len(sink.created))
	}
}

func TestSubmitValidation(t *testing.T) {
	h := &ReviewHandler{
		Store:   &fakeReviewStore{byToken: map[string]*model.Reservation{}},
		Reviews: &fakeReviewSink{},
		Now:     time.Now,
	}

	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing token", `{"rating":5}`, http.StatusBadRequest},
		{"rating too low", `{"token":"x","rating":0}`, http.StatusBadRequest},
		{"rating too high", `{"token":"x","rating":11}`, http.StatusBadRequest},
		{"unknown token", `{"token":"x","rating":5}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := submitReview(h, tc.body); rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestSendRequestsSweep(t *testing.T) {
	now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	store := &fakeReviewStore{
		due: []model.Reservation{
			{ID: 1, RestaurantID: "seagull", Email: "a@example.com", FirstName: "Ada"},
			{ID: 2, RestaurantID: "pelican", Email: "b@example.com", FirstName: "Bob"},
		},
	}
	var published []queue.EmailJob
	publish := func(_ context.Context, job queue.EmailJob) error {
		published = append(published, job)
		return nil
	}
	h := &ReviewHandler{
		Store:   store,
		Reviews: &fakeReviewSink{},
		Publish: publish,
		TZ:      time.UTC,
		Now:     func() time.Time { return now },
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/send-review-requests", nil)
	rec := httptest.NewRecorder()
	if err := h.SendRequests(e.NewContext(req, rec)); err != nil {
		t.Fatalf("SendRequests: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"date":"2026-03-09"`) {
		t.Fatalf("body = %s, want yesterday's date", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sent":2`) {
		t.Fatalf("body = %s, want sent 2", rec.Body.String())
	}
	if len(published) != 2 {
		t.Fatalf("published %d jobs, want 2", len(published))
	}
	for _, job := range published {
		if job.Kind != queue.KindReviewRequest {
			t.Fatalf("job kind = %s", job.Kind)
		}
		if job.ReviewToken == "" || store.requested[job.ReservationID] != job.ReviewToken {
			t.Fatalf("job token %q not recorded for reservation %d", job.ReviewToken, job.ReservationID)
		}
	}
}

func TestSendRequestsKeepsFailedPublishEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	store := &fakeReviewStore{
		due: []model.Reservation{
			{ID: 1, RestaurantID: "seagull", Email: "a@example.com", FirstName: "Ada"},
		},
	}
	publish := func(_ context.Context, _ queue.EmailJob) error {
		return errors.New("broker down")
	}
	h := &ReviewHandler{
		Store:   store,
		Reviews: &fakeReviewSink{},
		Publish: publish,
		TZ:      time.UTC,
		Now:     func() time.Time { return now },
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/send-review-requests", nil)
	rec := httptest.NewRecorder()
	if err := h.SendRequests(e.NewContext(req, rec)); err != nil {
		t.Fatalf("SendRequests: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"sent":0`) {
		t.Fatalf("body = %s, want sent 0", rec.Body.String())
	}
	// The guard must stay clear so the next sweep picks the dinner up again.
	if len(store.requested) != 0 {
		t.Fatalf("requested guard set for %d reservations after failed publish, want 0", len(store.requested))
	}
}
