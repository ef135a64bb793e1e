// Package pool provides a growable slot allocator with generational handles.
// Destroying a slot bumps its generation, so every handle to the old occupant
// fails validation once the slot is reused. Values are boxed per slot, which
// keeps borrowed pointers stable while the slot vector grows.
package pool

import "fmt"

type slotState uint8

const (
	slotFree slotState = iota
	slotOccupied
	slotReserved // value temporarily detached via Take
)

type slot[T any] struct {
	value      *T
	generation uint32
	state      slotState
}

// Ticket proves a Take and names the slot a detached value must return to.
type Ticket struct {
	index      uint32
	generation uint32
}

// Pool owns all slots of one value kind. Handles issued by Add stay valid
// until that exact occupant is destroyed.
//
// Single-goroutine access only (frame loop).
type Pool[T any] struct {
	slots []slot[T]
	// Freed slot indices, most recent last. Add pops from the tail so the
	// most recently freed slot is reused first.
	free []uint32
}

func New[T any]() *Pool[T] {
	return &Pool[T]{
		slots: make([]slot[T], 0, 64),
		free:  make([]uint32, 0, 16),
	}
}

// Add inserts a value and returns a handle that is valid immediately.
// The most recently freed slot is reused first; a fresh slot starts at
// generation 0.
func (p *Pool[T]) Add(value T) Handle {
	boxed := new(T)
	*boxed = value

	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[idx]
		s.value = boxed
		s.state = slotOccupied
		return makeHandle(idx, s.generation)
	}

	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot[T]{value: boxed, state: slotOccupied})
	return makeHandle(idx, 0)
}

// lookup resolves a handle to its slot iff the generation matches and the
// slot is in one of the wanted states.
func (p *Pool[T]) lookup(h Handle, wantReserved bool) (*slot[T], bool) {
	if h.IsNil() {
		return nil, false
	}
	idx := h.Index()
	if int(idx) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[idx]
	if s.generation != h.generation {
		return nil, false
	}
	if s.state == slotOccupied || (wantReserved && s.state == slotReserved) {
		return s, true
	}
	return nil, false
}

// Borrow returns the value behind a handle. Invalid handles are a fatal
// programmer error; use TryBorrow when staleness is expected.
func (p *Pool[T]) Borrow(h Handle) *T {
	s, ok := p.lookup(h, false)
	if !ok {
		panic(fmt.Sprintf("pool: borrow of invalid %v", h))
	}
	return s.value
}

// TryBorrow returns the value behind a handle, or false if the handle is
// stale, nil, or the slot's value is currently detached.
func (p *Pool[T]) TryBorrow(h Handle) (*T, bool) {
	s, ok := p.lookup(h, false)
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Take detaches the value from its slot, leaving the slot vacant but
// reserved: the slot is not reusable and not borrowable until PutBack. The
// caller holds the value while remaining free to access the rest of the pool.
func (p *Pool[T]) Take(h Handle) (Ticket, *T) {
	t, v, ok := p.TryTake(h)
	if !ok {
		panic(fmt.Sprintf("pool: take of invalid %v", h))
	}
	return t, v
}

// TryTake is Take for possibly-stale handles.
func (p *Pool[T]) TryTake(h Handle) (Ticket, *T, bool) {
	s, ok := p.lookup(h, false)
	if !ok {
		return Ticket{}, nil, false
	}
	v := s.value
	s.value = nil
	s.state = slotReserved
	return Ticket{index: h.Index(), generation: h.generation}, v, true
}

// TryTakeByIndex takes by raw slot index, reconstructing the handle from the
// slot's current generation. False for out-of-range, free, or reserved slots.
func (p *Pool[T]) TryTakeByIndex(i int) (Ticket, *T, bool) {
	if i < 0 || i >= len(p.slots) {
		return Ticket{}, nil, false
	}
	s := &p.slots[i]
	if s.state != slotOccupied {
		return Ticket{}, nil, false
	}
	v := s.value
	s.value = nil
	s.state = slotReserved
	return Ticket{index: uint32(i), generation: s.generation}, v, true
}

// PutBack restores a taken value to its slot with no generation change. If
// the slot was destroyed (and possibly reused) while the value was detached,
// the value is dropped instead: the destroy already won.
func (p *Pool[T]) PutBack(t Ticket, v *T) {
	if int(t.index) >= len(p.slots) {
		return
	}
	s := &p.slots[t.index]
	if s.generation != t.generation || s.state != slotReserved {
		return // slot destroyed while detached
	}
	s.value = v
	s.state = slotOccupied
}

// Destroy frees the slot behind a handle, bumps its generation (saturating)
// and pushes the index on the free list. Works on occupied and reserved
// slots; a reserved slot is the destroy-during-own-callback path. Invalid
// handles are a fatal programmer error.
func (p *Pool[T]) Destroy(h Handle) {
	s, ok := p.lookup(h, true)
	if !ok {
		panic(fmt.Sprintf("pool: destroy of invalid %v", h))
	}
	s.value = nil
	s.state = slotFree
	if s.generation != ^uint32(0) {
		s.generation++
	}
	p.free = append(p.free, h.Index())
}

// Len returns the slot vector length, including free and reserved slots.
// With HandleFromIndex it supports flat iteration in slot order.
func (p *Pool[T]) Len() int {
	return len(p.slots)
}

// HandleFromIndex rebuilds a handle from a slot index using the slot's
// current generation, so index loops never resurrect a stale handle. False
// for out-of-range, free, or reserved slots.
func (p *Pool[T]) HandleFromIndex(i int) (Handle, bool) {
	if i < 0 || i >= len(p.slots) {
		return Nil, false
	}
	s := &p.slots[i]
	if s.state != slotOccupied {
		return Nil, false
	}
	return makeHandle(uint32(i), s.generation), true
}

// Live returns the number of occupied slots.
func (p *Pool[T]) Live() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].state == slotOccupied {
			n++
		}
	}
	return n
}
