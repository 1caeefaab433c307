package gwatchdog

import (
	"sync"
	"sync/atomic"
)

// placement records which worker-owned collection holds an element.
type placement uint8

const (
	placeNone placement = iota
	placeRing
	placeActive
	placeExpired
)

// notification mask bits, indexed by gwnotify.Kind.
const (
	notifyActive  uint32 = 1 << 1
	notifyExpired uint32 = 1 << 2
	notifyDeleted uint32 = 1 << 3
)

// element is the state of one watchdog, stored in an arena slot.
type element struct {
	idx uint32 // Slot index; fixed for the life of the arena.
	gen atomic.Uint32

	// In 100ms units. Zero marks the element as deleted.
	timeout atomic.Uint32

	// Written by Reset; see packActivity.
	activity atomic.Uint64

	notify atomic.Uint32
	sender atomic.Uint64

	// Fields below are owned by the worker goroutine,
	// except during allocation, which is ordered after the worker's release
	// by the arena mutex.

	// Sequence number of the last activity the worker processed.
	// Zero until the first pass.
	checkedSeq uint32

	deadline tickTime
	where    placement

	lprev, lnext *element

	mu      sync.Mutex
	expired bool
	changed chan struct{} // Closed and replaced on every status change.
}

func (e *element) handle() Handle {
	return Handle{idx: e.idx, gen: e.gen.Load()}
}

func (e *element) deleted() bool {
	return e.timeout.Load() == 0
}

// dirty reports whether a reset happened since the worker last armed e.
func (e *element) dirty() bool {
	return activitySeq(e.activity.Load()) != e.checkedSeq
}

// stamp records activity at the given tick.
func (e *element) stamp(now uint32) {
	for {
		old := e.activity.Load()
		if e.activity.CompareAndSwap(old, packActivity(activitySeq(old)+1, now)) {
			return
		}
	}
}

// status reports the current status, a channel that is closed on the next change,
// and whether e still belongs to the handle generation gen.
func (e *element) status(gen uint32) (Status, <-chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen.Load() != gen {
		return StatusInvalid, nil, false
	}

	st := StatusNotExpired
	if e.deleted() {
		st = StatusDeleted
	} else if e.expired {
		st = StatusExpired
	}
	return st, e.changed, true
}

func (e *element) isExpired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expired
}

// setExpired updates the expired flag and wakes all blocking waiters.
func (e *element) setExpired(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expired = v
	e.broadcastLocked()
}

// wakeWaiters releases all blocking waiters without changing the expired flag.
func (e *element) wakeWaiters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcastLocked()
}

func (e *element) broadcastLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}
