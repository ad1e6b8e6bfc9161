package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-marketplace/internal/config"
)

// ErrUnavailable is returned when the broker could not durably accept a
// job.  The caller should report a temporary failure; the job was not
// queued.
var ErrUnavailable = errors.New("retrieval queue unavailable")

// Publisher publishes retrieval jobs on a confirm-mode channel.  Enqueue
// only returns nil after the broker has confirmed the persistent message,
// so an accepted job survives a broker or API crash.
//
// A single channel is shared and guarded by mu: confirms on one channel
// are delivered in publish order and the channel must not be used
// concurrently.
type Publisher struct {
	cfg  config.QueueConfig
	dial func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher that connects lazily on first use.
func NewPublisher(cfg config.QueueConfig) *Publisher {
	return &Publisher{cfg: cfg, dial: amqp.Dial}
}

// Enqueue validates and durably publishes job.  It returns an error
// wrapping ErrInvalidRequest for bad input and ErrUnavailable when the
// broker cannot be reached or refuses the message.
func (p *Publisher) Enqueue(ctx context.Context, job RetrievalJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrInvalidRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		log.Printf("retrieval-publisher: connect failed: %v", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",          // default exchange
		p.cfg.Queue, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		pub,
	)
	if err != nil {
		p.resetLocked()
		log.Printf("retrieval-publisher: publish failed: %v", err)
		return fmt.Errorf("%w: publish: %v", ErrUnavailable, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("%w: await confirm: %v", ErrUnavailable, err)
	}
	if !acked {
		return fmt.Errorf("%w: broker nacked job for event %s", ErrUnavailable, job.EventID)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return err
}

// channelLocked returns an open confirm-mode channel, dialing and
// declaring the topology when the previous one is gone.  mu must be held.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	if err := declareTopology(ch, p.cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
