package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/ticket-marketplace/internal/model"
)

// EventSearchQuery defines filters and pagination for searching events.
type EventSearchQuery struct {
	Title        string
	Vendor       string
	Availability string // "available" (default), "sold_out" or "any"
	Page         int
	PageSize     int
}

// normalized clamps paging to page >= 1 and 1..100 rows per page.
func (q EventSearchQuery) normalized() EventSearchQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	q.Availability = strings.ToLower(strings.TrimSpace(q.Availability))
	return q
}

// eventFilter builds the WHERE clause and its arguments for q.
func eventFilter(q EventSearchQuery) (string, []any) {
	where := []string{}
	args := []any{}

	switch q.Availability {
	case "any":
	case "sold_out":
		where = append(where, "remaining_tickets = 0")
	default:
		where = append(where, "remaining_tickets > 0")
	}
	if t := strings.TrimSpace(q.Title); t != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if v := strings.TrimSpace(q.Vendor); v != "" {
		where = append(where, "LOWER(vendor) LIKE ?")
		args = append(args, "%"+strings.ToLower(v)+"%")
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of events matching q, newest first, together
// with the total number of matches.
func (r *EventRepo) Search(ctx context.Context, q EventSearchQuery) ([]model.Event, int64, error) {
	q = q.normalized()
	cond, args := eventFilter(q)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+cond+` ORDER BY id DESC LIMIT ? OFFSET ?`, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, q.PageSize)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
