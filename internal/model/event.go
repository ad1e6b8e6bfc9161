package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Event represents a ticketed event as stored in the `events` table.  It
// is the persisted ticket record: the simulation engine reads it once when
// a rehearsal starts and the retrieval consumer decrements its stock.
//
// Fields:
//  ID                      – primary key identifier.
//  Title                   – event title shown to customers.
//  Vendor                  – name of the vendor releasing the tickets.
//  Description             – free text description.
//  PriceCents              – price of a single ticket in cents.
//  TotalTickets            – tickets originally put on sale.
//  RemainingTickets        – authoritative unsold stock.
//  TicketReleaseRateMs     – interval between vendor releases in a simulation.
//  CustomerRetrievalRateMs – interval between customer purchases in a simulation.
//  MaxTicketCapacity       – maximum tickets held by the simulated pool.
//  ImageURL                – optional poster image.
//  CreatedAt               – timestamp of creation.
//  UpdatedAt               – timestamp of last update.
type Event struct {
	ID                      uint64    // events.id
	Title                   string    // events.title
	Vendor                  string    // events.vendor
	Description             string    // events.description
	PriceCents              uint32    // events.price_cents
	TotalTickets            int       // events.total_tickets
	RemainingTickets        int       // events.remaining_tickets
	TicketReleaseRateMs     int       // events.ticket_release_rate_ms
	CustomerRetrievalRateMs int       // events.customer_retrieval_rate_ms
	MaxTicketCapacity       int       // events.max_ticket_capacity
	ImageURL                string    // events.image_url
	CreatedAt               time.Time // events.created_at
	UpdatedAt               time.Time // events.updated_at
}

// ErrInvalidEventID is returned by ParseEventID for identifiers that are
// not positive integers.
var ErrInvalidEventID = errors.New("invalid event id")

// ParseEventID converts the string form used on the wire and in URLs into
// the numeric primary key.
func ParseEventID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidEventID
	}
	return id, nil
}

// Validate checks the invariants an event must satisfy before it can be
// stored or simulated.
func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(e.Vendor) == "":
		return errors.New("vendor is required")
	case e.TotalTickets < 0:
		return errors.New("total_tickets must not be negative")
	case e.RemainingTickets < 0 || e.RemainingTickets > e.TotalTickets:
		return errors.New("remaining_tickets must be between 0 and total_tickets")
	case e.MaxTicketCapacity <= 0:
		return errors.New("max_ticket_capacity must be positive")
	case e.TicketReleaseRateMs <= 0:
		return errors.New("ticket_release_rate must be positive")
	case e.CustomerRetrievalRateMs <= 0:
		return errors.New("customer_retrieval_rate must be positive")
	}
	return nil
}
