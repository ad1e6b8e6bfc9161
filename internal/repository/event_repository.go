package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// EventRepo manages persistence for ticket records.  It is the single
// owner of remaining stock: simulations only read from it and the
// retrieval consumer is the only writer of remaining_tickets.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, title, vendor, description, price_cents, total_tickets, remaining_tickets,
	ticket_release_rate_ms, customer_retrieval_rate_ms, max_ticket_capacity, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Vendor,
		&e.Description,
		&e.PriceCents,
		&e.TotalTickets,
		&e.RemainingTickets,
		&e.TicketReleaseRateMs,
		&e.CustomerRetrievalRateMs,
		&e.MaxTicketCapacity,
		&e.ImageURL,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// Create inserts a new event.  RemainingTickets starts equal to
// TotalTickets.  On success the generated ID and timestamps are populated.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (title, vendor, description, price_cents, total_tickets, remaining_tickets,
		ticket_release_rate_ms, customer_retrieval_rate_ms, max_ticket_capacity, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Vendor, e.Description, e.PriceCents, e.TotalTickets, e.TotalTickets,
		e.TicketReleaseRateMs, e.CustomerRetrievalRateMs, e.MaxTicketCapacity, e.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetTicketRecord(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = created
	return nil
}

// List returns every event, newest first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetTicketRecord fetches one event by id.  A missing row is reported as
// ErrEventNotFound.
func (r *EventRepo) GetTicketRecord(ctx context.Context, id uint64) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// Update overwrites the descriptive and simulation fields of an event.
// Stock is adjusted by the difference in total tickets so sales already
// processed stay accounted for; shrinking the total below what has been
// sold yields ErrInsufficientStock.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET
		title = ?, vendor = ?, description = ?, price_cents = ?,
		remaining_tickets = remaining_tickets + (? - total_tickets),
		total_tickets = ?,
		ticket_release_rate_ms = ?, customer_retrieval_rate_ms = ?, max_ticket_capacity = ?, image_url = ?
		WHERE id = ? AND remaining_tickets + (? - total_tickets) >= 0`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Vendor, e.Description, e.PriceCents,
		e.TotalTickets, e.TotalTickets,
		e.TicketReleaseRateMs, e.CustomerRetrievalRateMs, e.MaxTicketCapacity, e.ImageURL,
		e.ID, e.TotalTickets)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		if _, err := r.GetTicketRecord(ctx, e.ID); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	updated, err := r.GetTicketRecord(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = updated
	return nil
}

// Delete removes an event.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DecrementStock removes quantity tickets from the remaining stock.  The
// UPDATE only matches while enough stock is left, so concurrent consumers
// can never drive it negative.  When nothing matched, a follow-up read
// tells a missing event (ErrEventNotFound) from a short one
// (ErrInsufficientStock).
func (r *EventRepo) DecrementStock(ctx context.Context, id uint64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET remaining_tickets = remaining_tickets - ? WHERE id = ? AND remaining_tickets >= ?`,
		quantity, id, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var remaining int
	err = r.db.QueryRowContext(ctx, `SELECT remaining_tickets FROM events WHERE id = ?`, id).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientStock
}
