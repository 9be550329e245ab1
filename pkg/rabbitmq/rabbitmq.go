package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/streadway/amqp"

	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/pkg/logger"
)

// AuditQueue receives a copy of every product event when the audit consumer is enabled.
const AuditQueue = "product_audit"

// ErrChannelClosed is returned when the client has no usable channel.
var ErrChannelClosed = errors.New("rabbitmq channel is not available")

// channel is the subset of *amqp.Channel used by Client.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// Client publishes product events to a topic exchange and optionally consumes them back.
type Client struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	log      *logger.Logger
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// NewClient connects to RabbitMQ, opens a channel and declares the product exchange.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg.Exchange, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func newClient(ch channel, exchange string, log *logger.Logger) (*Client, error) {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ client connected")
	return &Client{
		channel:  ch,
		exchange: exchange,
		log:      log,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// Publish sends a product event to the exchange. The event type is the routing key.
func (c *Client) Publish(ctx context.Context, event models.ProductEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return ErrChannelClosed
	}

	err = c.channel.Publish(
		c.exchange,         // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	c.log.Debug().Str("event", string(event.Type)).Int64("product_id", event.ProductID).Msg("product event published")
	return nil
}

// ConsumeProductEvents binds queue to every product routing key and hands decoded events to handler
// until ctx is done or the channel closes.
func (c *Client) ConsumeProductEvents(ctx context.Context, queue string, handler func(models.ProductEvent) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return ErrChannelClosed
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(q.Name, "product.#", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handleDelivery(msg, handler)
			}
		}
	}()
	return nil
}

// handleDelivery acks processed messages, requeues handler failures and drops undecodable bodies.
func (c *Client) handleDelivery(msg amqp.Delivery, handler func(models.ProductEvent) error) {
	var event models.ProductEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Error().Err(err).Uint64("tag", msg.DeliveryTag).Msg("dropping malformed product event")
		if rejectErr := msg.Reject(false); rejectErr != nil {
			c.log.Error().Err(rejectErr).Uint64("tag", msg.DeliveryTag).Msg("failed to reject message")
		}
		return
	}

	if err := handler(event); err != nil {
		c.log.Warn().Err(err).Str("event", string(event.Type)).Msg("product event handler failed, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.log.Error().Err(nackErr).Uint64("tag", msg.DeliveryTag).Msg("failed to nack message")
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error().Err(ackErr).Uint64("tag", msg.DeliveryTag).Msg("failed to ack message")
	}
}
