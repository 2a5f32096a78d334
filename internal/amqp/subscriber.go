package amqp

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
)

// Handler processes one change. Returning an error requeues the delivery.
type Handler func(ctx context.Context, msg ChangeMessage) error

// Subscriber consumes change events from a queue bound to the exchange.
type Subscriber struct {
	cfg    Config
	queue  string
	logger *log.Logger
}

// NewSubscriber creates a subscriber. An empty queue name declares a
// server-named exclusive queue that disappears with the connection.
func NewSubscriber(cfg Config, queue string, logger *log.Logger) *Subscriber {
	if logger == nil {
		logger = log.Discard()
	}
	return &Subscriber{cfg: cfg, queue: queue, logger: logger.WithComponent(log.ComponentAMQP)}
}

// Consume blocks, passing each change to handler, until ctx is done.
func (s *Subscriber) Consume(ctx context.Context, handler Handler) error {
	conn, err := amqp091.Dial(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(s.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	temporary := s.queue == ""
	q, err := ch.QueueDeclare(s.queue, !temporary, temporary, temporary, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, s.cfg.RoutingKey, s.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, temporary, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	s.logger.InfoContext(ctx, "Consuming change events", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.handle(ctx, d, handler)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, d amqp091.Delivery, handler Handler) {
	msg, err := ChangeMessageFromJSON(d.Body)
	if err != nil {
		s.logger.ErrorContext(ctx, "Discarding malformed change message", log.FieldError, err.Error())
		d.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to handle change message",
			log.FieldKey, msg.Key, log.FieldRevision, msg.Revision, log.FieldError, err.Error())
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}
