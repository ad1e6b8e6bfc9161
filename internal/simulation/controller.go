package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Settings are the per-event parameters of one simulation run.
type Settings struct {
	EventTitle        string
	VendorName        string
	Capacity          int
	TotalSupply       int
	ReleaseInterval   time.Duration
	RetrievalInterval time.Duration
}

// Options tune the synthetic vendors shared by every run.
type Options struct {
	MaxBatch    int           // upper bound of a random release batch
	VendorCount int           // synthetic vendors labelled "Vendor 1".."Vendor N"
	MinInterval time.Duration // floor applied to both task intervals
}

// DefaultOptions mirror the original vendor behaviour: batches of 1..10.
func DefaultOptions() Options {
	return Options{MaxBatch: 10, VendorCount: 5, MinInterval: 50 * time.Millisecond}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxBatch <= 0 {
		o.MaxBatch = d.MaxBatch
	}
	if o.VendorCount <= 0 {
		o.VendorCount = d.VendorCount
	}
	if o.MinInterval < 0 {
		o.MinInterval = 0
	}
	return o
}

// Controller owns one pool together with the release and withdrawal tasks
// bound to it.
type Controller struct {
	eventID  string
	settings Settings
	opts     Options
	pool     *Pool
	log      *EventLog
	rng      *rand.Rand // used only by the release task

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	startedAt time.Time
}

// NewController builds a controller and its pool without starting any
// background work.  rng may be nil, in which case a randomly seeded source
// is used.
func NewController(eventID string, s Settings, opts Options, log *EventLog, rng *rand.Rand) (*Controller, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = NewEventLog(nil, "")
	}
	pool, err := NewPool(PoolConfig{
		EventTitle:  s.EventTitle,
		VendorName:  s.VendorName,
		Capacity:    s.Capacity,
		TotalSupply: s.TotalSupply,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	if s.ReleaseInterval < opts.MinInterval {
		s.ReleaseInterval = opts.MinInterval
	}
	if s.RetrievalInterval < opts.MinInterval {
		s.RetrievalInterval = opts.MinInterval
	}
	if s.ReleaseInterval <= 0 || s.RetrievalInterval <= 0 {
		return nil, fmt.Errorf("event %s: %w: intervals must be positive", eventID, ErrInvalidPool)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		eventID:   eventID,
		settings:  s,
		opts:      opts,
		pool:      pool,
		log:       log,
		rng:       rng,
		ctx:       ctx,
		cancel:    cancel,
		startedAt: time.Now().UTC(),
	}, nil
}

// EventID returns the identifier of the simulated event.
func (c *Controller) EventID() string { return c.eventID }

// State returns the controller state, which is the state of its pool.
func (c *Controller) State() State { return c.pool.State() }

// Done is closed when the run completes or is interrupted.
func (c *Controller) Done() <-chan struct{} { return c.pool.Done() }

// Logs returns the run's event log entries.
func (c *Controller) Logs() []string { return c.log.Entries() }

// Start seeds the pool with the whole supply, the way the vendor's first
// release does, and launches both periodic tasks.  Calling Start more than
// once has no further effect.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.log.Printf("Simulation started.")
		c.pool.Release(c.settings.TotalSupply, c.settings.VendorName)

		c.wg.Add(2)
		go c.releaseLoop()
		go c.withdrawLoop()
	})
}

// Stop interrupts the run, cancels both tasks and waits for them to exit.
// Cancellation is cooperative: a tick already in progress finishes, but the
// pool rejects any mutation once Interrupt has returned.  Stopping a run
// that already ended only releases its timers.
func (c *Controller) Stop() {
	c.pool.Interrupt()
	c.cancel()
	c.wg.Wait()
}

// releaseLoop is the vendor side: every release interval it offers a random
// batch bounded by the tickets still owed.  It stops once the whole supply
// has been released.
func (c *Controller) releaseLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.settings.ReleaseInterval)
	defer t.Stop()
	for {
		if c.pool.Owed() == 0 {
			if c.pool.State() == StateRunning {
				c.log.Printf("All tickets have been added. Stopping producer.")
			}
			return
		}
		select {
		case <-c.ctx.Done():
			return
		case <-c.pool.Done():
			return
		case <-t.C:
		}
		n := min(c.rng.IntN(c.opts.MaxBatch)+1, c.pool.Owed())
		vendor := fmt.Sprintf("Vendor %d", c.rng.IntN(c.opts.VendorCount)+1)
		c.pool.Release(n, vendor)
	}
}

// withdrawLoop is the customer side: one purchase attempt per retrieval
// interval, leaving it to the pool to decide whether a ticket is available.
func (c *Controller) withdrawLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.settings.RetrievalInterval)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.pool.Done():
			return
		case <-t.C:
		}
		c.pool.Withdraw()
	}
}

// Status is the externally visible view of a controller.
type Status struct {
	EventID   string    `json:"event_id"`
	StartedAt time.Time `json:"started_at"`
	Snapshot
}

// Status returns the controller's current status.
func (c *Controller) Status() Status {
	return Status{EventID: c.eventID, StartedAt: c.startedAt, Snapshot: c.pool.Snapshot()}
}
