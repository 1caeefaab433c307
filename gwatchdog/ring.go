package gwatchdog

import (
	"sync"
	"sync/atomic"
)

// registrationRing hands newly created elements to the worker.
//
// Any goroutine may push; only the worker pops.
// One slot is kept empty so that read == write means empty.
type registrationRing struct {
	mu    sync.Mutex // Serializes producers.
	slots []*element

	read, write atomic.Uint32
}

func newRegistrationRing(capacity int) *registrationRing {
	return &registrationRing{slots: make([]*element, capacity+1)}
}

func (r *registrationRing) push(e *element) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.write.Load()
	next := (w + 1) % uint32(len(r.slots))
	if next == r.read.Load() {
		return false
	}
	r.slots[w] = e
	r.write.Store(next)
	return true
}

func (r *registrationRing) pop() (*element, bool) {
	rd := r.read.Load()
	if rd == r.write.Load() {
		return nil, false
	}
	e := r.slots[rd]
	r.slots[rd] = nil
	r.read.Store((rd + 1) % uint32(len(r.slots)))
	return e, true
}

func (r *registrationRing) len() int {
	rd, w := r.read.Load(), r.write.Load()
	if w >= rd {
		return int(w - rd)
	}
	return len(r.slots) - int(rd-w)
}
