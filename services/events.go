package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventListingCreated = "created"
	EventListingUpdated = "updated"
	EventListingDeleted = "deleted"
)

// ListingEvent is published after a successful catalog mutation so that
// downstream consumers (notifications, analytics) can react without polling
// the shards.
type ListingEvent struct {
	Action    string    `json:"action"`
	CustomID  string    `json:"custom_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers listing events. Publishing is always best-effort: the
// catalog never fails a mutation because an event could not be sent.
type Publisher interface {
	PublishListingEvent(ctx context.Context, event ListingEvent) error
	Close() error
}

// AMQPPublisher publishes listing events to a topic exchange, routing key
// "listing.<action>".
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishListingEvent(ctx context.Context, event ListingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	routingKey := "listing." + event.Action
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
