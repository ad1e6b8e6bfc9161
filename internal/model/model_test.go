package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventID(t *testing.T) {
	id, err := ParseEventID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, raw := range []string{"", "0", "-1", "4.2", "abc", "18446744073709551616"} {
		_, err := ParseEventID(raw)
		assert.ErrorIs(t, err, ErrInvalidEventID, raw)
	}
}

func TestEventValidate(t *testing.T) {
	valid := Event{
		Title:                   "Concert",
		Vendor:                  "Acme",
		TotalTickets:            10,
		RemainingTickets:        10,
		TicketReleaseRateMs:     100,
		CustomerRetrievalRateMs: 100,
		MaxTicketCapacity:       5,
	}
	require.NoError(t, valid.Validate())

	zero := valid
	zero.TotalTickets, zero.RemainingTickets = 0, 0
	assert.NoError(t, zero.Validate(), "an event may have nothing left to sell")

	for name, mutate := range map[string]func(*Event){
		"blank title":       func(e *Event) { e.Title = "  " },
		"blank vendor":      func(e *Event) { e.Vendor = "" },
		"negative total":    func(e *Event) { e.TotalTickets = -1 },
		"remaining > total": func(e *Event) { e.RemainingTickets = 11 },
		"zero capacity":     func(e *Event) { e.MaxTicketCapacity = 0 },
		"zero release rate": func(e *Event) { e.TicketReleaseRateMs = 0 },
		"zero retrieval":    func(e *Event) { e.CustomerRetrievalRateMs = -5 },
	} {
		e := valid
		mutate(&e)
		assert.Error(t, e.Validate(), name)
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleVendor, NormalizeRole(" vendor "))
	assert.Equal(t, RoleCustomer, NormalizeRole("CUSTOMER"))
	assert.Equal(t, RoleCustomer, NormalizeRole("admin"))
	assert.Equal(t, RoleCustomer, NormalizeRole(""))
}
