package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

const (
	// ListingEventsExchange fans listing events out to every bound queue.
	ListingEventsExchange = "listing_events"
	// SitemapQueue is the durable work queue consumed by sitemap workers.
	SitemapQueue = "listing_events.sitemap"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	lost    <-chan error
	log     *logrus.Entry
}

// NewRabbitMQ connects and declares the listing events exchange.
func NewRabbitMQ(url string, log *logrus.Entry) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ListingEventsExchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	lost := forwardClose(
		conn.NotifyClose(make(chan *amqp.Error, 1)),
		ch.NotifyClose(make(chan *amqp.Error, 1)),
	)

	log.Info("connected to RabbitMQ and declared exchange")
	return &RabbitMQ{conn: conn, channel: ch, lost: lost, log: log}, nil
}

// Lost yields an error when the broker drops the connection or channel. It is
// closed without a value after a clean Close.
func (r *RabbitMQ) Lost() <-chan error {
	return r.lost
}

func forwardClose(connClosed, chClosed <-chan *amqp.Error) <-chan error {
	lost := make(chan error, 1)
	go func() {
		defer close(lost)
		var amqpErr *amqp.Error
		select {
		case amqpErr = <-connClosed:
		case amqpErr = <-chClosed:
		}
		if amqpErr != nil {
			lost <- fmt.Errorf("rabbitmq connection lost: %w", amqpErr)
		}
	}()
	return lost
}

func (r *RabbitMQ) Publish(ctx context.Context, ev domain.ListingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		ListingEventsExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
}

// Consume binds a queue to the exchange and hands every event to handler.
// An empty queue name declares an exclusive, server-named queue that lives as
// long as this connection, which is what broadcast subscribers want.
// Messages are acked after handler returns.
func (r *RabbitMQ) Consume(queue string, handler func(domain.ListingEvent)) error {
	exclusive := queue == ""
	q, err := r.channel.QueueDeclare(
		queue,
		!exclusive, // durable
		exclusive,  // delete when unused
		exclusive,  // exclusive
		false,      // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := r.channel.QueueBind(q.Name, "", ListingEventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := r.channel.Consume(
		q.Name,
		"",
		false, // auto-ack
		exclusive,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			var ev domain.ListingEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				r.log.WithError(err).Warn("invalid listing event")
				_ = d.Nack(false, false)
				continue
			}
			handler(ev)
			_ = d.Ack(false)
		}
		r.log.WithField("queue", q.Name).Info("consumer stopped")
	}()
	return nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.log.WithError(err).Warn("failed to close channel")
	}
	return r.conn.Close()
}

// InlineEvents dispatches events in-process, for single-binary deployments
// without a broker.
type InlineEvents struct {
	handlers []func(domain.ListingEvent)
}

func NewInlineEvents() *InlineEvents {
	return &InlineEvents{}
}

// Subscribe must be called before the first Publish.
func (e *InlineEvents) Subscribe(handler func(domain.ListingEvent)) {
	e.handlers = append(e.handlers, handler)
}

func (e *InlineEvents) Publish(_ context.Context, ev domain.ListingEvent) error {
	for _, h := range e.handlers {
		go h(ev)
	}
	return nil
}
