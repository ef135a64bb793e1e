package pool

import "fmt"

// Handle is a generation-checked reference to a pool slot. Equality is plain
// ==: two handles are the same reference iff slot and generation both match.
// The zero Handle is Nil, so links in zero-valued structs point at nothing
// rather than at slot 0. Internally the slot index is stored offset by one to
// make that work.
type Handle struct {
	slot       uint32 // slot index + 1; 0 means nil
	generation uint32
}

// Nil is the absent handle (also the zero value).
var Nil = Handle{}

func makeHandle(index, generation uint32) Handle {
	return Handle{slot: index + 1, generation: generation}
}

func (h Handle) IsNil() bool {
	return h.slot == 0
}

// Index returns the slot index. Only meaningful for non-nil handles.
func (h Handle) Index() uint32 {
	return h.slot - 1
}

func (h Handle) Generation() uint32 { return h.generation }

func (h Handle) String() string {
	if h.IsNil() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d:%d)", h.slot-1, h.generation)
}
