// Package amqp publishes and consumes payment events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "subtrack/internal/log"
)

const publishTimeout = 5 * time.Second

// Client owns one connection and channel bound to the payment events
// exchange. The queue name doubles as the routing key on the direct exchange.
type Client struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	queue    string
}

// NewClient dials the broker and declares the exchange, queue and binding.
// Declarations are idempotent, so publisher and consumer can both call this.
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{conn: conn, ch: ch, exchange: exchange, queue: queue}
	if err := c.declareTopology(); err != nil {
		c.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	return c, nil
}

func (c *Client) declareTopology() error {
	durable, autoDelete, internal, exclusive, noWait := true, false, false, false, false

	if err := c.ch.ExchangeDeclare(c.exchange, "direct", durable, autoDelete, internal, noWait, nil); err != nil {
		return fmt.Errorf("declare exchange %q: %w", c.exchange, err)
	}
	if _, err := c.ch.QueueDeclare(c.queue, durable, autoDelete, exclusive, noWait, nil); err != nil {
		return fmt.Errorf("declare queue %q: %w", c.queue, err)
	}
	if err := c.ch.QueueBind(c.queue, c.queue, c.exchange, noWait, nil); err != nil {
		return fmt.Errorf("bind queue %q: %w", c.queue, err)
	}
	return nil
}

// PublishPaymentRecorded sends msg as a persistent JSON delivery.
func (c *Client) PublishPaymentRecorded(ctx context.Context, msg *PaymentRecordedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pub := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := c.ch.PublishWithContext(ctx, c.exchange, c.queue, false, false, pub); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published payment recorded message",
		applog.FieldPaymentID, msg.PaymentID,
		applog.FieldSubscriptionID, msg.SubscriptionID,
		"exchange", c.exchange,
		"queue", c.queue)
	return nil
}

// ConsumePaymentRecorded delivers messages to handler until ctx is done.
// A handler error requeues the delivery; an undecodable body is dropped.
func (c *Client) ConsumePaymentRecorded(ctx context.Context, handler func(*PaymentRecordedMessage) error) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming payment recorded messages", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("message channel closed")
			}
			c.dispatch(ctx, delivery, handler)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, handler func(*PaymentRecordedMessage) error) {
	msg, err := PaymentRecordedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", applog.FieldError, err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			applog.FieldError, err,
			applog.FieldPaymentID, msg.PaymentID,
			applog.FieldSubscriptionID, msg.SubscriptionID)
		delivery.Nack(false, true)
		return
	}

	delivery.Ack(false)
}

func (c *Client) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
