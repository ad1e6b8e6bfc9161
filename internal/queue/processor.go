package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/ticket-marketplace/internal/model"
	"github.com/iliyamo/ticket-marketplace/internal/repository"
)

// StockStore is the persistence collaborator the processor applies jobs
// to.  Missing records are reported with repository.ErrEventNotFound and
// short stock with repository.ErrInsufficientStock.
type StockStore interface {
	GetTicketRecord(ctx context.Context, id uint64) (model.Event, error)
	DecrementStock(ctx context.Context, id uint64, quantity int) error
}

// Processor applies one retrieval job to the persisted stock.
type Processor struct {
	store   StockStore
	timeout time.Duration
}

// NewProcessor returns a processor bounding each job's persistence calls
// by timeout (5s when zero).
func NewProcessor(store StockStore, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Processor{store: store, timeout: timeout}
}

// Process validates the job, checks it against the stored record and
// decrements the stock.  A nil return means the decrement is persisted and
// the message may be acknowledged.
func (p *Processor) Process(ctx context.Context, job RetrievalJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	id := job.EventKey()
	rec, err := p.store.GetTicketRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("load event %d: %w", id, err)
	}
	if job.Quantity > rec.RemainingTickets {
		return fmt.Errorf("event %d: %d requested, %d left: %w", id, job.Quantity, rec.RemainingTickets, repository.ErrInsufficientStock)
	}
	// The conditional UPDATE re-checks stock, so a concurrent consumer that
	// sold the tickets in between still yields ErrInsufficientStock.
	if err := p.store.DecrementStock(ctx, id, job.Quantity); err != nil {
		return fmt.Errorf("decrement event %d: %w", id, err)
	}
	log.Printf("retrieval-consumer: retrieved %d ticket(s) for event %d", job.Quantity, id)
	return nil
}
