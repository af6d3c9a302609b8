// Package messaging mirrors catalog events onto a RabbitMQ queue.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"CatalogHooks/internal/catalog"
)

const (
	contentTypeJSON = "application/json"
	publishTimeout  = 5 * time.Second
	bufferSize      = 256
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes every event it is notified of from a single
// background goroutine. When the buffer is full the event is dropped.
type RabbitPublisher struct {
	ch     channel
	queue  string
	log    *zap.Logger
	events chan catalog.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewRabbitPublisher(conn *amqp.Connection, queue string, log *zap.Logger) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return newPublisher(ch, queue, log), nil
}

func newPublisher(ch channel, queue string, log *zap.Logger) *RabbitPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &RabbitPublisher{
		ch:     ch,
		queue:  queue,
		log:    log,
		events: make(chan catalog.Event, bufferSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *RabbitPublisher) Notify(ev catalog.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn("amqp publisher closed, event dropped", zap.String("event", ev.Name))
		return
	}

	select {
	case p.events <- ev:
	default:
		p.log.Warn("amqp buffer full, event dropped", zap.String("event", ev.Name))
	}
}

func (p *RabbitPublisher) run() {
	defer close(p.done)

	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.publish(ctx, ev); err != nil {
			p.log.Error("publish catalog event failed", zap.String("event", ev.Name), zap.Error(err))
		}
		cancel()
	}
}

func (p *RabbitPublisher) publish(ctx context.Context, ev catalog.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Type:         ev.Name,
			Timestamp:    time.Now().UTC(),
			Body:         payload,
		},
	); err != nil {
		return fmt.Errorf("publish to %q: %w", p.queue, err)
	}

	return nil
}

// Close publishes what is already buffered, waiting until ctx ends, and
// closes the channel. Events notified after Close are dropped.
func (p *RabbitPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
	}
	return p.ch.Close()
}
