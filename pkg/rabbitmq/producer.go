/**
 * @description
 * This package publishes bank events (registrations, account lifecycle, ledger
 * entries) to a durable RabbitMQ topic exchange. Publishing is fire-and-forget
 * from the caller's point of view: a broker failure is logged and never fails
 * the request that produced the event.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client.
 */

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BankEventsExchange is the topic exchange all bank events are routed through.
const BankEventsExchange = "bank_events"

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// NoopPublisher is a minimal publisher used when RabbitMQ is not configured or
// unavailable at startup. It logs events instead of failing hard.
type NoopPublisher struct{}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	log.Printf("[MQ-FALLBACK] Would publish routingKey='%s' body=%v", routingKey, body)
	return nil
}

func (p *NoopPublisher) Close() {}

// EventProducer publishes events to the bank_events exchange.
type EventProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer connects to RabbitMQ, opens a channel, and declares the
// bank_events exchange.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		BankEventsExchange, // name
		"topic",            // type
		true,               // durable
		false,              // autoDelete
		false,              // internal
		false,              // noWait
		nil,                // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a JSON message to the bank_events exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("Error marshalling JSON body: %v", err)
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		BankEventsExchange, // exchange
		routingKey,         // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	)
	if err != nil {
		log.Printf("Failed to publish '%s' event: %v. Attempting channel reopen...", routingKey, err)
		// One-shot retry: reopen the channel and try again.
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return err
		}
		p.channel = ch
		return p.channel.PublishWithContext(ctx, BankEventsExchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		})
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
