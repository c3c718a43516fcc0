package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingSender struct {
	to      string
	subject string
	html    string
	err     error
}

func (s *recordingSender) Send(_ context.Context, to, subject, html string) error {
	s.to, s.subject, s.html = to, subject, html
	return s.err
}

type recordingStore struct {
	id     uint64
	status string
}

func (s *recordingStore) SetEmailStatus(_ context.Context, id uint64, status string) error {
	s.id, s.status = id, status
	return nil
}

func TestDeliverConfirmation(t *testing.T) {
	sender := &recordingSender{}
	c := NewEmailConsumer("amqp://unused", sender, &recordingStore{}, "https://dine.seagull.example")

	job := EmailJob{
		Kind:          KindConfirmation,
		ReservationID: 7,
		To:            "ada@example.com",
		Name:          "Ada Lovelace",
		Restaurant:    "italian",
		Room:          "101",
		Date:          "2026-09-10",
		Time:          "19:00",
		Guests:        2,
		MainCourses:   []string{"petto_chicken", "quatro_formagi"},
		UpsellItems:   map[string]int{"Sushi Set": 2},
		UpsellTotal:   24.5,
		CancelToken:   "tok-123",
	}
	if err := c.deliver(context.Background(), job); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if sender.to != "ada@example.com" {
		t.Errorf("to = %q", sender.to)
	}
	if sender.subject != "Reservation Confirmation" {
		t.Errorf("subject = %q", sender.subject)
	}
	for _, want := range []string{
		"Ada Lovelace",
		"Petto di Pollo (Chicken Breast)",
		"Quattro Formaggi",
		"Sushi Set",
		"https://dine.seagull.example/cancel/tok-123",
	} {
		if !strings.Contains(sender.html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestDeliverReviewRequest(t *testing.T) {
	sender := &recordingSender{}
	c := NewEmailConsumer("amqp://unused", sender, &recordingStore{}, "https://dine.seagull.example")

	job := EmailJob{
		Kind:        KindReviewRequest,
		To:          "ada@example.com",
		Name:        "Ada",
		Restaurant:  "chinese",
		ReviewToken: "rv-456",
	}
	if err := c.deliver(context.Background(), job); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(sender.subject, "Chinese") {
		t.Errorf("subject = %q, want restaurant name", sender.subject)
	}
	if !strings.Contains(sender.html, "https://dine.seagull.example/review/rv-456") {
		t.Errorf("html missing review link: %q", sender.html)
	}
}

func TestDeliverUnknownKind(t *testing.T) {
	c := NewEmailConsumer("amqp://unused", &recordingSender{}, &recordingStore{}, "")
	if err := c.deliver(context.Background(), EmailJob{Kind: "postcard"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDeliverPropagatesSenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	c := NewEmailConsumer("amqp://unused", sender, &recordingStore{}, "")
	err := c.deliver(context.Background(), EmailJob{Kind: KindReviewRequest, To: "x@example.com"})
	if err == nil {
		t.Fatal("expected sender error")
	}
}

func TestDeliveryAttempt(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"no headers", nil, 1},
		{"missing key", amqp.Table{}, 1},
		{"int32", amqp.Table{"x-attempt": int32(2)}, 2},
		{"int64", amqp.Table{"x-attempt": int64(3)}, 3},
		{"garbage", amqp.Table{"x-attempt": "two"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deliveryAttempt(tc.headers); got != tc.want {
				t.Fatalf("deliveryAttempt = %d, want %d", got, tc.want)
			}
		})
	}
}
