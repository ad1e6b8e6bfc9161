// Package simulation runs ticket pool rehearsals: vendors release tickets
// into a bounded pool while customers withdraw them, each side on its own
// schedule, until the event's supply is sold out or the run is stopped.
package simulation

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle state of a pool and of the controller owning it.
type State int32

const (
	StateRunning State = iota
	StateInterrupted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateInterrupted:
		return "INTERRUPTED"
	case StateCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// ErrInvalidPool is returned by NewPool for impossible capacity/supply values.
var ErrInvalidPool = errors.New("invalid pool configuration")

// PoolConfig describes the fixed parameters of a pool.
type PoolConfig struct {
	EventTitle  string
	VendorName  string
	Capacity    int // maximum tickets held at once, > 0
	TotalSupply int // tickets ever to be released, >= 0
}

// Pool is the bounded FIFO buffer of unsold tickets for one event.
//
// Every mutable field is guarded by mu.  state is additionally kept in an
// atomic so Release and Withdraw can bail out without taking the lock once
// the run has ended; it is only ever written with mu held.
type Pool struct {
	eventTitle  string
	vendorName  string
	capacity    int
	totalSupply int

	log   *EventLog
	newID func() string

	state atomic.Int32
	done  chan struct{}

	mu       sync.Mutex
	released int
	sold     int
	buffer   []string
}

// NewPool validates cfg and returns an empty running pool.  A pool with no
// supply has nothing to sell and starts out completed.
func NewPool(cfg PoolConfig, log *EventLog) (*Pool, error) {
	if cfg.Capacity <= 0 || cfg.TotalSupply < 0 {
		return nil, ErrInvalidPool
	}
	if log == nil {
		log = NewEventLog(nil, "")
	}
	p := &Pool{
		eventTitle:  cfg.EventTitle,
		vendorName:  cfg.VendorName,
		capacity:    cfg.Capacity,
		totalSupply: cfg.TotalSupply,
		log:         log,
		newID:       uuid.NewString,
		done:        make(chan struct{}),
	}
	if cfg.TotalSupply == 0 {
		p.mu.Lock()
		p.finishLocked(StateCompleted)
		p.mu.Unlock()
	}
	return p, nil
}

// State returns the current lifecycle state.
func (p *Pool) State() State { return State(p.state.Load()) }

// Done is closed once the pool leaves the running state.
func (p *Pool) Done() <-chan struct{} { return p.done }

func (p *Pool) running() bool { return p.State() == StateRunning }

// Release adds up to n freshly minted tickets and returns how many were
// added.  n is clamped to the supply not yet released; a batch that would
// overflow the capacity is rejected whole.  Exhaustion and a full pool are
// expected conditions, so they are logged and never reported as errors.
func (p *Pool) Release(n int, vendorLabel string) int {
	if !p.running() {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running() {
		return 0
	}

	remaining := p.totalSupply - p.released
	if remaining == 0 {
		p.log.Printf("No tickets remaining to be released.")
		return 0
	}
	if n > remaining {
		n = remaining
	}
	if n <= 0 {
		return 0
	}
	if len(p.buffer)+n > p.capacity {
		p.log.Printf("Ticket pool is full. Cannot add %d more ticket(s) (%d/%d).", n, len(p.buffer), p.capacity)
		return 0
	}

	if vendorLabel == "" {
		vendorLabel = p.vendorName
	}
	for i := 0; i < n; i++ {
		p.buffer = append(p.buffer, p.newID())
	}
	p.released += n

	p.log.Printf("Vendor [%s] added %d %s ticket(s).", vendorLabel, n, p.eventTitle)
	p.log.Printf("Ticket pool size: %d/%d", len(p.buffer), p.capacity)
	p.log.Printf("Tickets remaining to be released: %d", p.totalSupply-p.released)
	return n
}

// Withdraw sells the oldest ticket in the pool.  ok is false when the pool
// is empty or no longer running; customers simply try again on their next
// tick.  Selling the last ticket of the supply completes the pool.
func (p *Pool) Withdraw() (ticketID string, ok bool) {
	if !p.running() {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running() {
		return "", false
	}

	if len(p.buffer) == 0 {
		p.log.Printf("No tickets available for purchase.")
		return "", false
	}
	ticketID = p.buffer[0]
	p.buffer[0] = ""
	p.buffer = p.buffer[1:]
	p.sold++

	p.log.Printf("Customer [%d] purchased %s ticket with ID %s from %s.", p.sold, p.eventTitle, ticketID, p.vendorName)
	p.log.Printf("Tickets left in pool: %d", len(p.buffer))
	p.log.Printf("Tickets remaining to be released to the pool: %d", p.totalSupply-p.released)

	if p.sold == p.totalSupply {
		p.log.Printf("All tickets have been sold!")
		p.finishLocked(StateCompleted)
		p.log.Printf("Simulation stopped. All tickets have been released and purchased.")
	}
	return ticketID, true
}

// Interrupt stops a running pool.  Because it takes the pool lock, no
// Release or Withdraw can mutate the pool after it returns.  It reports
// whether this call performed the transition.
func (p *Pool) Interrupt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finishLocked(StateInterrupted) {
		return false
	}
	p.log.Printf("The current simulation is interrupted.")
	return true
}

// Owed is the number of tickets still to be released into the pool.
func (p *Pool) Owed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSupply - p.released
}

// finishLocked moves a running pool into a terminal state.  mu must be held.
func (p *Pool) finishLocked(to State) bool {
	if !p.state.CompareAndSwap(int32(StateRunning), int32(to)) {
		return false
	}
	close(p.done)
	return true
}

// Snapshot is a consistent point-in-time view of a pool.
type Snapshot struct {
	EventTitle  string `json:"title"`
	VendorName  string `json:"vendor"`
	Capacity    int    `json:"max_ticket_capacity"`
	TotalSupply int    `json:"total_tickets"`
	Released    int    `json:"released"`
	Sold        int    `json:"sold"`
	Available   int    `json:"available"`
	State       string `json:"state"`
}

// Snapshot returns the pool counters taken under the lock.
func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		EventTitle:  p.eventTitle,
		VendorName:  p.vendorName,
		Capacity:    p.capacity,
		TotalSupply: p.totalSupply,
		Released:    p.released,
		Sold:        p.sold,
		Available:   len(p.buffer),
		State:       p.State().String(),
	}
}
