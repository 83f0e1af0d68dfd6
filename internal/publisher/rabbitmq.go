package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"listing_harvester/internal/domain"
)

const batchMessageType = "listing_batch"

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ delivers finished listing batches to a durable queue bound to a
// direct exchange.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger = logger.With("component", "publisher")
	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	// Exchange and queue are durable and never auto-deleted.
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	return nil
}

// BatchMessage carries one finished category of a run.
type BatchMessage struct {
	RunToken  string           `json:"run_token"`
	Category  string           `json:"category"`
	Count     int              `json:"count"`
	Listings  []domain.Listing `json:"listings"`
	Timestamp time.Time        `json:"timestamp"`
}

func (r *RabbitMQ) PublishBatch(ctx context.Context, batch *domain.ListingBatch) error {
	now := time.Now().UTC()
	msg := BatchMessage{
		RunToken:  batch.RunToken,
		Category:  batch.Category,
		Count:     len(batch.Listings),
		Listings:  batch.Listings,
		Timestamp: now,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	publishing := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         batchMessageType,
		Headers: amqp.Table{
			"run_token": batch.RunToken,
			"category":  batch.Category,
		},
		Body:      body,
		Timestamp: now,
	}

	if err := r.channel.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("publish batch %s/%s: %w", batch.RunToken, batch.Category, err)
	}

	r.logger.Debug("published batch",
		"run_token", batch.RunToken,
		"category", batch.Category,
		"count", msg.Count,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
