package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/seagullhotel/restaurant-reservation/internal/mailer"
	"github.com/seagullhotel/restaurant-reservation/internal/model"
)

// maxEmailAttempts bounds delivery retries per job. The attempt counter
// travels in the x-attempt message header; after the last failed attempt
// the reservation's email status is marked failed and the job is dropped.
const maxEmailAttempts = 3

// StatusStore records the terminal state of a confirmation email on its
// reservation. Implemented by repository.ReservationRepo.
type StatusStore interface {
	SetEmailStatus(ctx context.Context, id uint64, status string) error
}

// EmailConsumer drains the reservation.emails queue and delivers each job
// through a Sender.
type EmailConsumer struct {
	url             string
	sender          mailer.Sender
	store           StatusStore
	frontendBaseURL string
}

// NewEmailConsumer builds a consumer for the given broker URL.
func NewEmailConsumer(url string, sender mailer.Sender, store StatusStore, frontendBaseURL string) *EmailConsumer {
	return &EmailConsumer{url: url, sender: sender, store: store, frontendBaseURL: frontendBaseURL}
}

// Start connects to the broker, declares the durable queue and consumes
// jobs until the process exits. Connection loss triggers a reconnect loop
// with exponential backoff, so a broker restart never takes the server
// down with it.
func (c *EmailConsumer) Start() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("email-consumer: dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("email-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *EmailConsumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("email-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		c.handle(ch, d)
	}
	return errors.New("deliveries channel closed")
}

func (c *EmailConsumer) handle(ch *amqp.Channel, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("email-consumer: bad payload, dropping: %v", err)
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err := c.deliver(ctx, job)
	if err == nil {
		if job.Kind == KindConfirmation {
			if serr := c.store.SetEmailStatus(ctx, job.ReservationID, model.EmailSent); serr != nil {
				log.Printf("email-consumer: mark sent reservation=%d: %v", job.ReservationID, serr)
			}
		}
		_ = d.Ack(false)
		return
	}

	attempt := deliveryAttempt(d.Headers)
	log.Printf("email-consumer: deliver kind=%s reservation=%d attempt=%d: %v",
		job.Kind, job.ReservationID, attempt, err)
	if attempt >= maxEmailAttempts {
		if job.Kind == KindConfirmation {
			if serr := c.store.SetEmailStatus(ctx, job.ReservationID, model.EmailFailed); serr != nil {
				log.Printf("email-consumer: mark failed reservation=%d: %v", job.ReservationID, serr)
			}
		}
		_ = d.Ack(false)
		return
	}

	if err := c.republish(ctx, ch, d.Body, attempt+1); err != nil {
		log.Printf("email-consumer: requeue attempt=%d: %v", attempt+1, err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// deliver renders the job and sends it. Split out from handle so tests
// can exercise rendering and dispatch without a broker.
func (c *EmailConsumer) deliver(ctx context.Context, job EmailJob) error {
	var (
		subject string
		html    string
		err     error
	)
	switch job.Kind {
	case KindConfirmation:
		subject, html, err = mailer.Confirmation{
			Name:        job.Name,
			Restaurant:  job.Restaurant,
			Room:        job.Room,
			Date:        job.Date,
			Time:        job.Time,
			Guests:      job.Guests,
			MainCourses: job.MainCourses,
			UpsellItems: job.UpsellItems,
			UpsellTotal: job.UpsellTotal,
			CancelURL:   fmt.Sprintf("%s/cancel/%s", c.frontendBaseURL, job.CancelToken),
		}.Render()
	case KindReviewRequest:
		subject, html, err = mailer.ReviewRequest{
			Name:       job.Name,
			Restaurant: job.Restaurant,
			ReviewURL:  fmt.Sprintf("%s/review/%s", c.frontendBaseURL, job.ReviewToken),
		}.Render()
	default:
		return fmt.Errorf("unknown email kind %q", job.Kind)
	}
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, job.To, subject, html)
}

func (c *EmailConsumer) republish(ctx context.Context, ch *amqp.Channel, body []byte, attempt int) error {
	return ch.PublishWithContext(ctx, "", EmailQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"x-attempt": int32(attempt)},
		Body:         body,
	})
}

func deliveryAttempt(headers amqp.Table) int {
	v, ok := headers["x-attempt"]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	}
	return 1
}
