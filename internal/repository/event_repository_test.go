package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-marketplace/internal/model"
)

var (
	decrementSQL = regexp.QuoteMeta(`UPDATE events SET remaining_tickets = remaining_tickets - ? WHERE id = ? AND remaining_tickets >= ?`)
	remainingSQL = regexp.QuoteMeta(`SELECT remaining_tickets FROM events WHERE id = ?`)
	updateSQL    = regexp.QuoteMeta(`UPDATE events SET title = ?`)
	selectOneSQL = regexp.QuoteMeta(`FROM events WHERE id = ? LIMIT 1`)
)

func newMockRepo(t *testing.T) (*EventRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewEventRepo(db), mock
}

func eventRows(e model.Event) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "vendor", "description", "price_cents", "total_tickets", "remaining_tickets",
		"ticket_release_rate_ms", "customer_retrieval_rate_ms", "max_ticket_capacity", "image_url",
		"created_at", "updated_at",
	}).AddRow(
		e.ID, e.Title, e.Vendor, e.Description, e.PriceCents, e.TotalTickets, e.RemainingTickets,
		e.TicketReleaseRateMs, e.CustomerRetrievalRateMs, e.MaxTicketCapacity, e.ImageURL,
		e.CreatedAt, e.UpdatedAt,
	)
}

func TestDecrementStock(t *testing.T) {
	t.Run("enough stock", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(decrementSQL).WithArgs(2, 7, 2).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, r.DecrementStock(context.Background(), 7, 2))
	})

	t.Run("short stock leaves the row alone", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(decrementSQL).WithArgs(5, 7, 5).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(remainingSQL).WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_tickets"}).AddRow(3))

		assert.ErrorIs(t, r.DecrementStock(context.Background(), 7, 5), ErrInsufficientStock)
	})

	t.Run("missing event", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(decrementSQL).WithArgs(1, 99, 1).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(remainingSQL).WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_tickets"}))

		assert.ErrorIs(t, r.DecrementStock(context.Background(), 99, 1), ErrEventNotFound)
	})
}

func TestUpdateEvent(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	in := model.Event{
		ID: 7, Title: "Gig", Vendor: "Acme", TotalTickets: 120,
		TicketReleaseRateMs: 500, CustomerRetrievalRateMs: 800, MaxTicketCapacity: 20,
	}

	t.Run("grows stock by the total delta", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(updateSQL).
			WithArgs("Gig", "Acme", "", 0, 120, 120, 500, 800, 20, "", 7, 120).
			WillReturnResult(sqlmock.NewResult(0, 1))
		stored := in
		stored.RemainingTickets = 95
		stored.CreatedAt, stored.UpdatedAt = now, now
		mock.ExpectQuery(selectOneSQL).WithArgs(7).WillReturnRows(eventRows(stored))

		e := in
		require.NoError(t, r.Update(context.Background(), &e))
		assert.Equal(t, 95, e.RemainingTickets)
		assert.Equal(t, now, e.UpdatedAt)
	})

	t.Run("shrinking below sold count", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		stored := in
		stored.TotalTickets, stored.RemainingTickets = 200, 10
		mock.ExpectQuery(selectOneSQL).WithArgs(7).WillReturnRows(eventRows(stored))

		e := in
		assert.ErrorIs(t, r.Update(context.Background(), &e), ErrInsufficientStock)
		assert.Zero(t, e.RemainingTickets)
	})

	t.Run("missing event", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectOneSQL).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		e := in
		assert.ErrorIs(t, r.Update(context.Background(), &e), ErrEventNotFound)
	})
}

func TestDeleteEventMissing(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM events WHERE id = ?`)).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Delete(context.Background(), 3), ErrEventNotFound)
}
