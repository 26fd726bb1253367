// Package events publishes sync lifecycle events to RabbitMQ. Publishing is
// best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"innpilot/reservation-sync/internal/constants"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncCompletedEvent is emitted once per finished reservation sync
type SyncCompletedEvent struct {
	RunID                    string    `json:"run_id"`
	TenantID                 string    `json:"tenant_id"`
	Status                   string    `json:"status"`
	Created                  int       `json:"created"`
	Updated                  int       `json:"updated"`
	Errors                   int       `json:"errors"`
	UnresolvedAccommodations int       `json:"unresolved_accommodations"`
	CompletedAt              time.Time `json:"completed_at"`
}

// Publisher sends sync events somewhere other services can see them
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, event SyncCompletedEvent) error
}

// NopPublisher drops every event. Used when AMQP is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishSyncCompleted(context.Context, SyncCompletedEvent) error { return nil }

// AMQPPublisher dials the broker per event; syncs are infrequent enough
// that a long-lived channel is not worth the reconnect handling.
type AMQPPublisher struct {
	url      string
	exchange string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: constants.EventExchange}
}

func (p *AMQPPublisher) PublishSyncCompleted(ctx context.Context, event SyncCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, constants.EventReservationsSynced, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
