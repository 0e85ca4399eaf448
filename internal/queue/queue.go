package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventsExchange carries order lifecycle events for downstream consumers
// (notification senders, reporting). This service only publishes.
const EventsExchange = "venue.events"

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) EnsureExchange(name string) error {
	return c.ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

type OrderEvent struct {
	OrderNo     string `json:"orderNo"`
	OrderStatus string `json:"orderStatus,omitempty"`
	Actor       string `json:"actor,omitempty"`
	At          string `json:"at"`
}

// PublishOrderEvent emits an order lifecycle event with routing key
// "order.<kind>" (created, updated, deleted).
func (c *Client) PublishOrderEvent(ctx context.Context, kind string, event OrderEvent) error {
	if event.At == "" {
		event.At = time.Now().UTC().Format(time.RFC3339)
	}
	return c.PublishJSON(ctx, EventsExchange, "order."+kind, event)
}
