package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TimelineEvent mirrors a chat-timeline milestone to the event queue so
// external consumers (notifiers, analytics) can follow job lifecycles.
type TimelineEvent struct {
	SessionID string    `json:"session_id"`
	JobID     string    `json:"job_id,omitempty"`
	Status    string    `json:"status"` // started | completed | failed
	Title     string    `json:"title"`
	IsRemix   bool      `json:"is_remix"`
	At        time.Time `json:"at"`
}

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := DeclareTimelineQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeclareTimelineQueues declares the event queue and its DLQ. Publisher and
// consumer both call it so either side can start first; the arguments must
// stay identical or the broker rejects the redeclare.
func DeclareTimelineQueues(ch *amqp.Channel, queue string) error {
	dlqQ := queue + ".dlq"

	// DLQ first so the main queue can dead-letter into it.
	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	)
	return err
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishTimelineEvent(ctx context.Context, ev TimelineEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
