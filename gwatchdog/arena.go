package gwatchdog

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// arena is the fixed pool of element slots.
type arena struct {
	mu    sync.Mutex
	used  *bitset.BitSet
	slots []element
}

func newArena(n int) *arena {
	a := &arena{
		used:  bitset.New(uint(n)),
		slots: make([]element, n),
	}
	for i := range a.slots {
		a.slots[i].idx = uint32(i)
		a.slots[i].changed = make(chan struct{})
	}
	return a
}

// alloc claims a free slot and bumps its generation.
// The element's fields are reset, except for the generation.
func (a *arena) alloc() (*element, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.used.NextClear(0)
	if !ok || i >= uint(len(a.slots)) {
		return nil, false
	}
	a.used.Set(i)

	e := &a.slots[i]

	e.mu.Lock()
	g := e.gen.Add(1)
	if g == 0 {
		// Generation zero is reserved for the zero Handle.
		e.gen.Store(1)
	}
	e.expired = false
	e.broadcastLocked()
	e.mu.Unlock()

	e.timeout.Store(0)
	e.activity.Store(0)
	e.notify.Store(0)
	e.sender.Store(0)
	e.checkedSeq = 0
	e.deadline = tickTime{}
	e.where = placeNone
	e.lprev, e.lnext = nil, nil

	return e, true
}

// free returns e's slot to the pool.
// The generation is kept so a stale handle still resolves to a deleted element
// until the slot is reused.
func (a *arena) free(e *element) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.used.Test(uint(e.idx)) {
		panic(errDoubleFree(e.idx))
	}
	a.used.Clear(uint(e.idx))
}

// lookup resolves h to its element.
func (a *arena) lookup(h Handle) (*element, bool) {
	if h.gen == 0 || int(h.idx) >= len(a.slots) {
		return nil, false
	}
	e := &a.slots[h.idx]
	if e.gen.Load() != h.gen {
		return nil, false
	}
	return e, true
}

// live reports the number of allocated slots.
func (a *arena) live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.used.Count())
}
