package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/ticket-marketplace/internal/model"
	"github.com/iliyamo/ticket-marketplace/internal/repository"
)

var (
	// ErrAlreadyRunning is returned when a simulation for the event is
	// already registered.
	ErrAlreadyRunning = errors.New("simulation already running")
	// ErrNotFound is returned when no simulation (or no ticket record) exists
	// for the event.
	ErrNotFound = errors.New("simulation not found")
	// ErrNoActiveSimulations is returned by CollectLogs on an empty registry.
	ErrNoActiveSimulations = errors.New("no active simulations")
)

// RecordSource loads the persisted ticket record a simulation is built from.
// Implementations report a missing record with repository.ErrEventNotFound.
type RecordSource interface {
	GetTicketRecord(ctx context.Context, id uint64) (model.Event, error)
}

// Registry maps event identifiers to their running controllers.  It is an
// ordinary value: create one per process (or per test) with NewRegistry.
type Registry struct {
	records RecordSource
	opts    Options
	mirror  *log.Logger
	newRand func() *rand.Rand

	mu   sync.Mutex
	sims map[string]*Controller
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithMirrorLogger copies every simulation log line to l, prefixed with the
// event identifier.
func WithMirrorLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) { r.mirror = l }
}

// WithRandSource overrides how each controller's random source is created.
func WithRandSource(fn func() *rand.Rand) RegistryOption {
	return func(r *Registry) { r.newRand = fn }
}

// NewRegistry returns an empty registry reading ticket records from records.
func NewRegistry(records RecordSource, opts Options, options ...RegistryOption) *Registry {
	r := &Registry{
		records: records,
		opts:    opts.withDefaults(),
		sims:    make(map[string]*Controller),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Start creates, registers and starts a simulation for eventID.
func (r *Registry) Start(ctx context.Context, eventID string) error {
	id, err := model.ParseEventID(eventID)
	if err != nil {
		return err
	}
	key := strconv.FormatUint(id, 10)

	if r.has(key) {
		return ErrAlreadyRunning
	}

	rec, err := r.records.GetTicketRecord(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return fmt.Errorf("%w: event %s", ErrNotFound, key)
		}
		return fmt.Errorf("load ticket record %s: %w", key, err)
	}

	var rng *rand.Rand
	if r.newRand != nil {
		rng = r.newRand()
	}
	ctrl, err := NewController(key, Settings{
		EventTitle:        rec.Title,
		VendorName:        rec.Vendor,
		Capacity:          rec.MaxTicketCapacity,
		TotalSupply:       rec.RemainingTickets,
		ReleaseInterval:   time.Duration(rec.TicketReleaseRateMs) * time.Millisecond,
		RetrievalInterval: time.Duration(rec.CustomerRetrievalRateMs) * time.Millisecond,
	}, r.opts, NewEventLog(r.mirror, "simulation["+key+"]: "), rng)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sims[key]; ok {
		ctrl.Stop()
		return ErrAlreadyRunning
	}
	r.sims[key] = ctrl
	ctrl.Start()
	return nil
}

// Stop interrupts the simulation for eventID and removes it.  Stopping an
// unknown, unparsable or already stopped simulation returns ErrNotFound.
func (r *Registry) Stop(eventID string) error {
	key, err := canonicalKey(eventID)
	if err != nil {
		return fmt.Errorf("%w: event %q", ErrNotFound, eventID)
	}
	r.mu.Lock()
	ctrl, ok := r.sims[key]
	if ok {
		delete(r.sims, key)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: event %s", ErrNotFound, key)
	}
	ctrl.Stop()
	return nil
}

// CollectLogs concatenates the event logs of every registered simulation.
// Each simulation's entries stay in order; simulations are visited in
// event identifier order.
func (r *Registry) CollectLogs() ([]string, error) {
	ctrls := r.controllers()
	if len(ctrls) == 0 {
		return nil, ErrNoActiveSimulations
	}
	var out []string
	for _, c := range ctrls {
		out = append(out, c.Logs()...)
	}
	return out, nil
}

// Status returns the status of the simulation for eventID.
func (r *Registry) Status(eventID string) (Status, error) {
	key, err := canonicalKey(eventID)
	if err != nil {
		return Status{}, err
	}
	r.mu.Lock()
	ctrl, ok := r.sims[key]
	r.mu.Unlock()
	if !ok {
		return Status{}, fmt.Errorf("%w: event %s", ErrNotFound, key)
	}
	return ctrl.Status(), nil
}

// List returns the status of every registered simulation.
func (r *Registry) List() []Status {
	ctrls := r.controllers()
	out := make([]Status, 0, len(ctrls))
	for _, c := range ctrls {
		out = append(out, c.Status())
	}
	return out
}

// Len reports the number of registered simulations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sims)
}

// Shutdown stops and removes every simulation.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sims))
	for k, c := range r.sims {
		ctrls = append(ctrls, c)
		delete(r.sims, k)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range ctrls {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			c.Stop()
		}(c)
	}
	wg.Wait()
}

func (r *Registry) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sims[key]
	return ok
}

// controllers returns the registered controllers sorted by event id.
func (r *Registry) controllers() []*Controller {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sims))
	for _, c := range r.sims {
		ctrls = append(ctrls, c)
	}
	r.mu.Unlock()
	sort.Slice(ctrls, func(i, j int) bool {
		a, _ := strconv.ParseUint(ctrls[i].eventID, 10, 64)
		b, _ := strconv.ParseUint(ctrls[j].eventID, 10, 64)
		return a < b
	})
	return ctrls
}

func canonicalKey(eventID string) (string, error) {
	id, err := model.ParseEventID(eventID)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}
