package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroHandleIsNil(t *testing.T) {
	var h Handle
	assert.True(t, h.IsNil())
	assert.Equal(t, Nil, h)
	assert.Equal(t, "handle(nil)", h.String())
}

func TestAddBorrow(t *testing.T) {
	p := New[string]()
	h := p.Add("alpha")

	require.False(t, h.IsNil())
	assert.Equal(t, uint32(0), h.Index())
	assert.Equal(t, uint32(0), h.Generation())
	assert.Equal(t, "alpha", *p.Borrow(h))

	v, ok := p.TryBorrow(h)
	require.True(t, ok)
	assert.Equal(t, "alpha", *v)
}

func TestBorrowedPointerSurvivesGrowth(t *testing.T) {
	p := New[int]()
	h := p.Add(1)
	v := p.Borrow(h)
	for i := 0; i < 10_000; i++ {
		p.Add(i)
	}
	*v = 42
	assert.Equal(t, 42, *p.Borrow(h))
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	p := New[string]()
	h := p.Add("alpha")
	p.Destroy(h)

	_, ok := p.TryBorrow(h)
	assert.False(t, ok)
	assert.Panics(t, func() { p.Borrow(h) })
	assert.Panics(t, func() { p.Destroy(h) })
}

func TestReuseBumpsGeneration(t *testing.T) {
	p := New[string]()
	old := p.Add("alpha")
	p.Add("beta")
	p.Destroy(old)

	fresh := p.Add("gamma")
	assert.Equal(t, old.Index(), fresh.Index())
	assert.Greater(t, fresh.Generation(), old.Generation())

	// The stale handle never validates against the new occupant.
	_, ok := p.TryBorrow(old)
	assert.False(t, ok)
	assert.Equal(t, "gamma", *p.Borrow(fresh))
}

func TestFreeListIsLIFO(t *testing.T) {
	p := New[int]()
	a := p.Add(1)
	b := p.Add(2)
	c := p.Add(3)

	p.Destroy(a)
	p.Destroy(c)

	// c was freed last, so its slot is reused first, then a's.
	first := p.Add(4)
	second := p.Add(5)
	assert.Equal(t, c.Index(), first.Index())
	assert.Equal(t, a.Index(), second.Index())

	// b was untouched throughout.
	assert.Equal(t, 2, *p.Borrow(b))
}

func TestFreshSlotsStartAtGenerationZero(t *testing.T) {
	p := New[int]()
	for i := 0; i < 5; i++ {
		h := p.Add(i)
		assert.Equal(t, uint32(0), h.Generation())
	}
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 5, p.Live())
}

func TestTakePutBack(t *testing.T) {
	p := New[string]()
	h := p.Add("alpha")

	ticket, v, ok := p.TryTake(h)
	require.True(t, ok)
	assert.Equal(t, "alpha", *v)

	// Detached slot: not borrowable, not takeable, not reusable.
	_, ok = p.TryBorrow(h)
	assert.False(t, ok)
	_, _, ok = p.TryTake(h)
	assert.False(t, ok)
	_, ok = p.HandleFromIndex(int(h.Index()))
	assert.False(t, ok)

	// The rest of the pool stays usable while the value is out.
	other := p.Add("beta")
	assert.NotEqual(t, h.Index(), other.Index())

	*v = "alpha2"
	p.PutBack(ticket, v)
	assert.Equal(t, "alpha2", *p.Borrow(h))
	assert.Equal(t, h.Generation(), p.mustGen(h), "put back must not change generation")
}

// mustGen reads a slot's current generation for assertions.
func (p *Pool[T]) mustGen(h Handle) uint32 {
	return p.slots[h.Index()].generation
}

func TestTakeInvalidIsFatal(t *testing.T) {
	p := New[string]()
	h := p.Add("alpha")
	p.Destroy(h)
	assert.Panics(t, func() { p.Take(h) })
}

func TestDestroyWhileTakenDropsValueOnPutBack(t *testing.T) {
	p := New[string]()
	h := p.Add("alpha")

	ticket, v, ok := p.TryTake(h)
	require.True(t, ok)

	// Destroying a reserved slot frees it immediately.
	p.Destroy(h)
	_, ok = p.TryBorrow(h)
	assert.False(t, ok)

	// The slot may even be reused before the value comes back.
	fresh := p.Add("beta")
	assert.Equal(t, h.Index(), fresh.Index())

	p.PutBack(ticket, v)
	assert.Equal(t, "beta", *p.Borrow(fresh), "dropped value must not clobber the new occupant")
}

func TestTryTakeByIndex(t *testing.T) {
	p := New[int]()
	p.Add(10)
	h1 := p.Add(11)
	p.Destroy(h1)

	ticket, v, ok := p.TryTakeByIndex(0)
	require.True(t, ok)
	assert.Equal(t, 10, *v)
	p.PutBack(ticket, v)

	_, _, ok = p.TryTakeByIndex(1) // freed
	assert.False(t, ok)
	_, _, ok = p.TryTakeByIndex(2) // out of range
	assert.False(t, ok)
	_, _, ok = p.TryTakeByIndex(-1)
	assert.False(t, ok)
}

func TestHandleFromIndexUsesCurrentGeneration(t *testing.T) {
	p := New[int]()
	old := p.Add(1)
	p.Destroy(old)
	p.Add(2)

	h, ok := p.HandleFromIndex(0)
	require.True(t, ok)
	assert.NotEqual(t, old, h)
	assert.Equal(t, 2, *p.Borrow(h))

	_, ok = p.HandleFromIndex(5)
	assert.False(t, ok)
}

func TestNilHandleNeverValidates(t *testing.T) {
	p := New[int]()
	p.Add(1)

	_, ok := p.TryBorrow(Nil)
	assert.False(t, ok)
	assert.Panics(t, func() { p.Borrow(Nil) })
	assert.Panics(t, func() { p.Destroy(Nil) })
}

func TestPutBackZeroTicketOnEmptyPool(t *testing.T) {
	p := New[int]()
	assert.NotPanics(t, func() { p.PutBack(Ticket{}, nil) })
}

func TestAddDestroyChurn(t *testing.T) {
	p := New[int]()
	live := map[Handle]int{}

	for round := 0; round < 50; round++ {
		h := p.Add(round)
		live[h] = round
		if round%3 == 0 {
			for old, want := range live {
				assert.Equal(t, want, *p.Borrow(old))
				p.Destroy(old)
				delete(live, old)
				break
			}
		}
	}
	for h, want := range live {
		assert.Equal(t, want, *p.Borrow(h))
	}
	assert.Equal(t, len(live), p.Live())
}
