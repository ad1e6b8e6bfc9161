package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-marketplace/internal/config"
	"github.com/iliyamo/ticket-marketplace/internal/repository"
)

// Outcome records how a delivery was settled.
type Outcome int

const (
	// Acked: the job was applied and removed from the queue.
	Acked Outcome = iota
	// Requeued: the job failed and stays eligible for redelivery.
	Requeued
	// DeadLettered: the job can never succeed and went to the dead-letter queue.
	DeadLettered
)

func (o Outcome) String() string {
	switch o {
	case Acked:
		return "acked"
	case Requeued:
		return "requeued"
	case DeadLettered:
		return "dead-lettered"
	}
	return "unknown"
}

// Consumer drains the retrieval queue.  It keeps one unacknowledged job at
// a time per consumer (prefetch), and only acknowledges after the stock
// decrement has been persisted.
type Consumer struct {
	cfg  config.QueueConfig
	proc *Processor
	dial func(url string) (*amqp.Connection, error)
}

// NewConsumer returns a consumer applying jobs with proc.
func NewConsumer(cfg config.QueueConfig, proc *Processor) *Consumer {
	return &Consumer{cfg: cfg, proc: proc, dial: amqp.Dial}
}

// Run connects to RabbitMQ, declares the topology and consumes until ctx
// is cancelled.  Lost connections are retried with exponential backoff
// capped at 30s.  It returns ctx.Err() once cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := c.dial(c.cfg.URL)
		if err != nil {
			log.Printf("retrieval-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("retrieval-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := declareTopology(ch, c.cfg); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Printf("retrieval-consumer: consuming from %s", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery processes one message and settles it.  Jobs that can
// never succeed (invalid, unknown event, more tickets than are left) are
// rejected without requeue so the broker dead-letters them.  Anything else
// is treated as transient and requeued, bounded by the queue's delivery
// limit.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) Outcome {
	job, err := DecodeRetrievalJob(d.Body)
	if err == nil {
		err = c.proc.Process(ctx, job)
	}
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Printf("retrieval-consumer: ack failed for event %s: %v", job.EventID, ackErr)
		}
		return Acked
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrInsufficientStock):
		log.Printf("retrieval-consumer: dead-lettering job: %v", err)
		_ = d.Nack(false, false)
		return DeadLettered
	default:
		log.Printf("retrieval-consumer: job failed (redelivered=%t): %v", d.Redelivered, err)
		_ = d.Nack(false, true)
		return Requeued
	}
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
