// Package amqp publishes record-change events to RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
	"fintrack/internal/store"
)

const (
	publishTimeout = 5 * time.Second
	maxRetries     = 3
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	queueSize      = 256
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrQueueFull   = errors.New("publish queue is full")
	ErrClosed      = errors.New("publisher is closed")
)

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type dialFunc func(url string) (channel, func() error, error)

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn.Close, nil
}

// Config holds publisher settings.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Publisher implements store.Notifier. Publish only enqueues; Run delivers.
type Publisher struct {
	cfg    Config
	logger *log.Logger
	dial   dialFunc

	mu        sync.Mutex
	ch        channel
	closeConn func() error

	queue   chan ChangeMessage
	closed  atomic.Bool
	backoff func(attempt int) time.Duration
	now     func() time.Time

	state        atomic.Int32
	failureCount atomic.Int64
	lastFailure  atomic.Int64

	published atomic.Int64
	dropped   atomic.Int64
}

var _ store.Notifier = (*Publisher)(nil)

// NewPublisher creates a publisher. The connection is opened lazily by Run.
func NewPublisher(cfg Config, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Discard()
	}
	return &Publisher{
		cfg:     cfg,
		logger:  logger.WithComponent(log.ComponentAMQP),
		dial:    dialAMQP,
		queue:   make(chan ChangeMessage, queueSize),
		backoff: exponentialBackoff,
		now:     time.Now,
	}
}

// Publish enqueues a change for delivery.
func (p *Publisher) Publish(ctx context.Context, c store.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed.Load() {
		return ErrClosed
	}
	select {
	case p.queue <- NewChangeMessage(c):
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is done, then drains what is left
// with a short deadline.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Change publisher started", "exchange", p.cfg.Exchange)
	for {
		select {
		case msg := <-p.queue:
			p.deliver(ctx, msg)
		case <-ctx.Done():
			p.drain()
			return nil
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for {
		select {
		case msg := <-p.queue:
			p.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, msg ChangeMessage) {
	if err := p.send(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish change",
			log.NewFields().
				WithRecord(msg.Key, string(msg.ID)).
				WithOperation(log.OpPublish).
				WithError(err).
				ToSlice()...)
	}
}

// send publishes one message, retrying connection errors with backoff.
func (p *Publisher) send(ctx context.Context, msg ChangeMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.isCircuitOpen() {
			return ErrCircuitOpen
		}

		lastErr = p.publishOnce(ctx, msg, body)
		if lastErr == nil {
			p.recordSuccess()
			p.published.Add(1)
			p.logger.DebugContext(ctx, "Published change",
				log.FieldKey, msg.Key, log.FieldRecordID, string(msg.ID), log.FieldRevision, msg.Revision)
			return nil
		}

		p.recordFailure()
		if !isConnectionError(lastErr) {
			return lastErr
		}
		p.reset()

		if attempt == maxRetries {
			break
		}
		wait := p.backoff(attempt)
		p.logger.WarnContext(ctx, "Retrying publish after connection error",
			"attempt", attempt+1, "wait", wait.String(), log.FieldError, lastErr.Error())
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish after %d attempts: %w", maxRetries+1, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, msg ChangeMessage, body []byte) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Type:         msg.Key + "." + msg.Op,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the exchange when
// there is none.
func (p *Publisher) channel() (channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return p.ch, nil
	}

	ch, closeConn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		if closeConn != nil {
			closeConn()
		}
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p.ch, p.closeConn = ch, closeConn
	return ch, nil
}

// reset drops the current connection so the next attempt redials.
func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.closeConn != nil {
		err = p.closeConn()
		p.closeConn = nil
	}
	return err
}

// Close stops accepting changes and closes the connection. Call it after Run
// has returned.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

// Stats reports delivery counters.
func (p *Publisher) Stats() (published, dropped int64) {
	return p.published.Load(), p.dropped.Load()
}

func (p *Publisher) isCircuitOpen() bool {
	if p.state.Load() != StateOpen {
		return false
	}
	last := time.Unix(0, p.lastFailure.Load())
	if p.now().Sub(last) > openTimeout {
		p.state.CompareAndSwap(StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (p *Publisher) recordSuccess() {
	p.failureCount.Store(0)
	p.state.Store(StateClosed)
}

func (p *Publisher) recordFailure() {
	p.lastFailure.Store(p.now().UnixNano())
	if p.failureCount.Add(1) >= maxFailures || p.state.Load() == StateHalfOpen {
		p.state.Store(StateOpen)
	}
}

// exponentialBackoff is 1s doubling per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
