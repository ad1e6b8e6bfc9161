package simulation

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestPool(t require.TestingT, capacity, supply int) *Pool {
	p, err := NewPool(PoolConfig{
		EventTitle:  "Concert",
		VendorName:  "Acme",
		Capacity:    capacity,
		TotalSupply: supply,
	}, NewEventLog(nil, ""))
	require.NoError(t, err)
	n := 0
	p.newID = func() string {
		n++
		return "t" + strconv.Itoa(n)
	}
	return p
}

func assertInvariants(t require.TestingT, s Snapshot) {
	assert.GreaterOrEqual(t, s.Available, 0)
	assert.LessOrEqual(t, s.Available, s.Capacity)
	assert.Equal(t, s.Released, s.Sold+s.Available)
	assert.LessOrEqual(t, s.Released, s.TotalSupply)
	assert.LessOrEqual(t, s.Sold, s.TotalSupply)
}

func TestNewPoolRejectsInvalidConfig(t *testing.T) {
	_, err := NewPool(PoolConfig{Capacity: 0, TotalSupply: 5}, nil)
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = NewPool(PoolConfig{Capacity: 5, TotalSupply: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidPool)
}

func TestZeroSupplyPoolStartsCompleted(t *testing.T) {
	p := newTestPool(t, 5, 0)
	assert.Equal(t, StateCompleted, p.State())
	select {
	case <-p.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	assert.Equal(t, 0, p.Release(1, ""))
}

func TestReleaseClampsToRemainingSupply(t *testing.T) {
	p := newTestPool(t, 10, 3)

	assert.Equal(t, 3, p.Release(5, "Vendor 1"))
	assert.Equal(t, 0, p.Owed())
	assert.Equal(t, 0, p.Release(1, "Vendor 2"))

	logs := p.log.Entries()
	assert.Contains(t, logs, "Vendor [Vendor 1] added 3 Concert ticket(s).")
	assert.Contains(t, logs, "Ticket pool size: 3/10")
	assert.Contains(t, logs, "Tickets remaining to be released: 0")
	assert.Equal(t, "No tickets remaining to be released.", logs[len(logs)-1])
}

func TestReleaseRejectsOverflowingBatch(t *testing.T) {
	p := newTestPool(t, 5, 20)

	require.Equal(t, 4, p.Release(4, ""))
	assert.Equal(t, 0, p.Release(2, ""))
	assert.Contains(t, p.log.Entries(), "Ticket pool is full. Cannot add 2 more ticket(s) (4/5).")

	s := p.Snapshot()
	assert.Equal(t, 4, s.Released)
	assert.Equal(t, 4, s.Available)

	assert.Equal(t, 1, p.Release(1, ""))
	assert.Equal(t, 5, p.Snapshot().Available)
}

func TestReleaseDefaultsToPoolVendor(t *testing.T) {
	p := newTestPool(t, 5, 5)
	p.Release(2, "")
	assert.Contains(t, p.log.Entries(), "Vendor [Acme] added 2 Concert ticket(s).")
}

func TestWithdrawIsFIFO(t *testing.T) {
	p := newTestPool(t, 10, 10)
	p.Release(3, "")

	for _, want := range []string{"t1", "t2", "t3"} {
		got, ok := p.Withdraw()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := p.Withdraw()
	assert.False(t, ok)
	assert.Equal(t, "No tickets available for purchase.", p.log.Entries()[len(p.log.Entries())-1])
	assert.Equal(t, StateRunning, p.State())
}

func TestSellingLastTicketCompletes(t *testing.T) {
	p := newTestPool(t, 2, 2)
	p.Release(2, "")

	_, ok := p.Withdraw()
	require.True(t, ok)
	assert.Equal(t, StateRunning, p.State())

	_, ok = p.Withdraw()
	require.True(t, ok)
	assert.Equal(t, StateCompleted, p.State())
	<-p.Done()

	logs := p.log.Entries()
	assert.Contains(t, logs, "Customer [2] purchased Concert ticket with ID t2 from Acme.")
	assert.Contains(t, logs, "All tickets have been sold!")
	assert.Equal(t, "Simulation stopped. All tickets have been released and purchased.", logs[len(logs)-1])

	assert.False(t, p.Interrupt(), "completed pool cannot be interrupted")
}

func TestInterruptStopsMutations(t *testing.T) {
	p := newTestPool(t, 5, 10)
	p.Release(3, "")
	before := p.Snapshot()

	require.True(t, p.Interrupt())
	assert.False(t, p.Interrupt())
	assert.Equal(t, StateInterrupted, p.State())
	<-p.Done()

	n := len(p.log.Entries())
	assert.Equal(t, 0, p.Release(1, ""))
	_, ok := p.Withdraw()
	assert.False(t, ok)
	assert.Equal(t, n, len(p.log.Entries()), "no entries after interruption")

	after := p.Snapshot()
	assert.Equal(t, "INTERRUPTED", after.State)
	before.State = after.State
	assert.Equal(t, before, after)
}

func TestConcurrentReleaseAndWithdraw(t *testing.T) {
	const supply = 500
	p := newTestPool(t, 7, supply)
	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for p.Owed() > 0 && p.State() == StateRunning {
				p.Release(3, "")
			}
		}()
		go func() {
			defer wg.Done()
			for p.State() == StateRunning {
				id, ok := p.Withdraw()
				if !ok {
					continue
				}
				mu.Lock()
				assert.False(t, seen[id], "ticket %s sold twice", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s := p.Snapshot()
	assert.Equal(t, StateCompleted.String(), s.State)
	assert.Equal(t, supply, s.Sold)
	assert.Len(t, seen, supply)
	assertInvariants(t, s)
}

func TestPoolInvariantsHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		supply := rapid.IntRange(0, 60).Draw(rt, "supply")
		p := newTestPool(rt, capacity, supply)

		steps := rapid.IntRange(0, 150).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			prev := p.Snapshot()
			switch op := rapid.IntRange(0, 20).Draw(rt, "op"); {
			case op == 0:
				p.Interrupt()
			case op%2 == 1:
				n := rapid.IntRange(1, 25).Draw(rt, "batch")
				added := p.Release(n, "")
				if prev.State != StateRunning.String() {
					assert.Zero(rt, added)
				} else if added > 0 {
					assert.LessOrEqual(rt, added, n)
					assert.LessOrEqual(rt, prev.Available+added, capacity)
				}
			default:
				_, ok := p.Withdraw()
				if prev.Available == 0 || prev.State != StateRunning.String() {
					assert.False(rt, ok)
				}
			}

			s := p.Snapshot()
			assertInvariants(rt, s)
			assert.GreaterOrEqual(rt, s.Released, prev.Released)
			assert.GreaterOrEqual(rt, s.Sold, prev.Sold)
			if s.Sold == supply && prev.State == StateRunning.String() {
				assert.Equal(rt, StateCompleted.String(), s.State)
			}
			if prev.State != StateRunning.String() {
				assert.Equal(rt, prev, s, "terminal pools never change")
			}
		}
	})
}
