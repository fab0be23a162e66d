// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stayease/internal/common/config"
	"stayease/internal/common/logger"
	"stayease/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNotConnected = errors.New("events: channel is closed")

// EventBookingCompleted is the type header of booking events.
const EventBookingCompleted = "booking.completed"

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// BookingEvent is the JSON body of a booking.completed message.
type BookingEvent struct {
	EventID    string               `json:"eventId"`
	Type       string               `json:"type"`
	OccurredAt time.Time            `json:"occurredAt"`
	Booking    models.BookingRecord `json:"booking"`
}

// Publisher sends booking events to a RabbitMQ exchange.
type Publisher struct {
	channel    Channel
	conn       *amqp.Connection
	exchange   string
	routingKey string
	timeout    time.Duration
	log        logger.Logger
}

// Dial connects to cfg.URL, opens a channel and declares the exchange.
func Dial(cfg config.EventsConfig, log logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("events: failed to dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: failed to open a channel: %w", err)
	}

	p, err := NewPublisher(ch, cfg, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares a durable exchange on ch and returns a publisher for it.
func NewPublisher(ch Channel, cfg config.EventsConfig, log logger.Logger) (*Publisher, error) {
	if ch == nil {
		return nil, fmt.Errorf("events: channel cannot be nil")
	}
	if cfg.RoutingKey == "" {
		return nil, fmt.Errorf("events: routing key cannot be empty")
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("events: failed to declare exchange '%s': %w", cfg.Exchange, err)
		}
	}

	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	log = log.WithFields(map[string]interface{}{
		"exchange":   cfg.Exchange,
		"routingKey": cfg.RoutingKey,
	})
	log.Debug("events publisher ready", nil)

	return &Publisher{
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		timeout:    timeout,
		log:        log,
	}, nil
}

// PublishBooking sends one persistent booking.completed message.
func (p *Publisher) PublishBooking(ctx context.Context, rec models.BookingRecord) error {
	if err := p.Ping(ctx); err != nil {
		return err
	}

	event := BookingEvent{
		EventID:    uuid.NewString(),
		Type:       EventBookingCompleted,
		OccurredAt: time.Now().UTC(),
		Booking:    rec,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal booking event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Type:         event.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Headers: amqp.Table{
			"bookingId": rec.ID,
			"path":      string(rec.Path),
		},
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.channel.PublishWithContext(pubCtx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("events: failed to publish booking %s: %w", rec.ID, err)
	}

	p.log.Debug("booking event published", map[string]interface{}{
		"bookingId": rec.ID,
		"eventId":   event.EventID,
	})
	return nil
}

// Ping reports ErrNotConnected once the channel or connection is gone.
func (p *Publisher) Ping(context.Context) error {
	if p.channel == nil || (p.conn != nil && p.conn.IsClosed()) {
		return ErrNotConnected
	}
	return nil
}

// Close closes the channel and, for dialled publishers, the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	p.log.Info("events publisher closed", nil)
	return firstErr
}
