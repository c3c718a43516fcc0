package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seagullhotel/restaurant-reservation/internal/metrics"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
	"github.com/seagullhotel/restaurant-reservation/internal/queue"
	"github.com/seagullhotel/restaurant-reservation/internal/repository"
	"github.com/seagullhotel/restaurant-reservation/internal/utils"
)

// reviewStore is the reservation-side seam of the review cycle.
type reviewStore interface {
	FindByReviewToken(ctx context.Context, token string) (*model.Reservation, error)
	MarkReviewRequested(ctx context.Context, id uint64, token string) error
	MarkReviewReceived(ctx context.Context, id uint64) error
	DueForReviewRequest(ctx context.Context, date string) ([]model.Reservation, error)
}

// reviewSink stores and aggregates submitted reviews.
type reviewSink interface {
	Create(ctx context.Context, rv *model.RestaurantReview) error
	Summary(ctx context.Context) ([]model.ReviewSummary, error)
	ListRecent(ctx context.Context, limit int) ([]model.RestaurantReview, error)
}

// ReviewHandler runs the post-dinner review cycle: the daily request
// sweep, guest submission and the staff analytics views.
type ReviewHandler struct {
	Store   reviewStore
	Reviews reviewSink
	Publish EmailPublisher
	TZ      *time.Location
	Now     func() time.Time
}

func NewReviewHandler(store reviewStore, reviews reviewSink, pub EmailPublisher, tz *time.Location) *ReviewHandler {
	return &ReviewHandler{Store: store, Reviews: reviews, Publish: pub, TZ: tz, Now: time.Now}
}

// SendRequests sweeps yesterday's confirmed dinners and enqueues one
// review-request email each. The request-sent guard on the reservation
// makes re-running the sweep safe; a crashed run resumes where it
// stopped.
func (h *ReviewHandler) SendRequests(c echo.Context) error {
	yesterday := h.Now().In(h.TZ).AddDate(0, 0, -1).Format("2006-01-02")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	due, err := h.Store.DueForReviewRequest(ctx, yesterday)
	if err != nil {
		return writeBookingError(c, err)
	}

	sent := 0
	for _, res := range due {
		token, err := utils.NewReviewToken()
		if err != nil {
			log.Printf("review-sweep: mint token reservation=%d: %v", res.ID, err)
			continue
		}
		job := queue.EmailJob{
			Kind:          queue.KindReviewRequest,
			ReservationID: res.ID,
			To:            res.Email,
			Name:          res.FirstName,
			Restaurant:    res.RestaurantID,
			ReviewToken:   token,
		}
		// Publish before setting the request-sent guard: a failed publish
		// leaves the reservation eligible for the next sweep. The reverse
		// order would lose the request for good.
		if err := h.Publish(ctx, job); err != nil {
			log.Printf("review-sweep: publish reservation=%d: %v", res.ID, err)
			continue
		}
		if err := h.Store.MarkReviewRequested(ctx, res.ID, token); err != nil {
			log.Printf("review-sweep: mark requested reservation=%d: %v", res.ID, err)
		}
		metrics.IncEmailJobPublished(queue.KindReviewRequest)
		sent++
	}
	return c.JSON(http.StatusOK, echo.Map{"date": yesterday, "due": len(due), "sent": sent})
}

type submitReviewReq struct {
	Token   string `json:"token"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Submit stores a guest review. Tokens are single use: once the received
// guard is set, further submissions are acknowledged without writing a
// second review.
func (h *ReviewHandler) Submit(c echo.Context) error {
	var req submitReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if req.Rating < 1 || req.Rating > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 10"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Store.FindByReviewToken(ctx, req.Token)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid review link"})
	}
	if err != nil {
		return writeBookingError(c, err)
	}
	if res.Review.Received {
		return c.JSON(http.StatusOK, echo.Map{"status": "already received"})
	}

	rv := &model.RestaurantReview{
		ReservationID: res.ID,
		RestaurantID:  res.RestaurantID,
		Rating:        req.Rating,
		GuestName:     res.Name,
		GuestEmail:    res.Email,
		Room:          res.Room,
		DinnerDate:    res.Date,
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		rv.Comment = &comment
	}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		return writeBookingError(c, err)
	}
	if err := h.Store.MarkReviewReceived(ctx, res.ID); err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "received"})
}

// Summary returns per-restaurant review counts and averages.
func (h *ReviewHandler) Summary(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Reviews.Summary(ctx)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": out})
}

// Log returns the most recent reviews.
func (h *ReviewHandler) Log(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Reviews.ListRecent(ctx, limit)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": out})
}
