package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-marketplace/internal/config"
)

// declarer is the subset of *amqp.Channel needed to declare queues.
type declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// workQueueArgs makes the retrieval queue a quorum queue whose rejected or
// over-delivered messages are routed to the dead-letter queue through the
// default exchange.
func workQueueArgs(cfg config.QueueConfig) amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-delivery-limit":          int32(cfg.DeliveryLimit),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.DeadLetter,
	}
}

// declareTopology declares the dead-letter queue and the work queue.  Both
// are durable and declaring them is idempotent, so publisher and consumer
// each call it on every new channel.
func declareTopology(ch declarer, cfg config.QueueConfig) error {
	if _, err := ch.QueueDeclare(cfg.DeadLetter, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue %s: %w", cfg.DeadLetter, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, workQueueArgs(cfg)); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	return nil
}
