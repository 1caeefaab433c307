package gwatchdog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gordian-engine/gpms/gassert"
	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/internal/glog"
)

// kernel is the worker goroutine's state.
// Everything here is only touched from run.
type kernel struct {
	log *slog.Logger

	clock  gwclock.Clock
	timer  gwclock.Timer
	poster gwnotify.Poster

	arena  *arena
	ring   *registrationRing
	events *eventGroup

	active  activeList
	expired []*element

	// Reused for the active list walk.
	scratch []*element

	maxTick       uint32
	ticksPer100ms uint32

	// Last tick read from the clock, and the number of wraps observed so far.
	lastTick uint32
	epoch    uint64

	timerArmed bool
	timerDelay uint32

	assertEnv gassert.Env
}

func (k *kernel) run(ctx context.Context, wg *sync.WaitGroup, snapshotRequests <-chan snapshotRequest) {
	defer wg.Done()
	defer k.timer.Disable()

	for {
		select {
		case <-ctx.Done():
			k.log.Info("Stopping due to context cancellation", "cause", context.Cause(ctx))
			return

		case <-k.events.ch:
			r := k.events.consume()
			k.log.Debug("Woke", "reasons", r)
			k.pass()

		case req := <-snapshotRequests:
			_ = k.events.consume()
			k.pass()
			req.Resp <- k.snapshot() // Buffered.
		}
	}
}

// now reads the clock, counting a wrap when the tick went backwards.
func (k *kernel) now() tickTime {
	t := k.clock.Now()
	if t < k.lastTick {
		k.epoch++
		k.log.Debug("Observed tick counter wrap", "last", k.lastTick, "now", t)
	}
	k.lastTick = t
	return tickTime{epoch: k.epoch, tick: t}
}

// pass runs the worker's processing steps,
// repeating while the earliest deadline has already passed.
func (k *kernel) pass() {
	for {
		k.drainRing()
		k.scanActive()
		k.reconcileExpired()

		invariantActiveOrder(k.assertEnv, &k.active)
		invariantPlacement(k.assertEnv, &k.active, k.expired)

		if !k.reprogram() {
			return
		}
	}
}

func (k *kernel) drainRing() {
	for {
		e, ok := k.ring.pop()
		if !ok {
			return
		}

		if e.deleted() {
			k.release(e)
			continue
		}

		k.arm(e)
		k.active.insert(e)
		k.post(e, gwnotify.KindActive, notifyActive)
	}
}

// arm recomputes e's deadline from its latest activity
// and marks that activity as processed.
// It reports whether the deadline has already been reached.
func (k *kernel) arm(e *element) (due bool) {
	// Load the activity before reading the clock,
	// so the stamp is never later than now.
	a := e.activity.Load()
	now := k.now()

	e.checkedSeq = activitySeq(a)

	span := e.timeout.Load() * k.ticksPer100ms
	elapsed := tickSub(now.tick, activityTick(a), k.maxTick)
	if elapsed >= span {
		e.deadline = now
		return true
	}

	e.deadline = addTicks(now, span-elapsed, k.maxTick)
	k.log.Debug(
		"Armed",
		"wd", e.handle(),
		"deadline", glog.TickSpan{Now: now.tick, Deadline: e.deadline.tick, Rollover: e.deadline.epoch > now.epoch},
	)
	return false
}

func (k *kernel) scanActive() {
	now := k.now()

	k.scratch = k.active.appendTo(k.scratch[:0])
	defer func() {
		clear(k.scratch)
		k.scratch = k.scratch[:0]
	}()

	for _, e := range k.scratch {
		if e.deleted() {
			k.active.remove(e)
			k.release(e)
			continue
		}

		due := false
		if e.dirty() {
			k.active.remove(e)
			due = k.arm(e)
			if !due {
				k.active.insert(e)
				continue
			}
		} else if now.before(e.deadline) {
			continue
		} else {
			k.active.remove(e)
		}

		k.expire(e)
	}
}

func (k *kernel) expire(e *element) {
	e.where = placeExpired
	k.expired = append(k.expired, e)
	e.setExpired(true)

	glog.WD(k.log, e.handle()).Debug("Expired", "tick", k.lastTick)
	k.post(e, gwnotify.KindExpired, notifyExpired)
}

func (k *kernel) reconcileExpired() {
	kept := k.expired[:0]
	for _, e := range k.expired {
		if e.deleted() {
			k.release(e)
			continue
		}

		if e.dirty() && !k.arm(e) {
			e.setExpired(false)
			k.active.insert(e)

			glog.WD(k.log, e.handle()).Debug("Re-armed after expiry")
			k.post(e, gwnotify.KindActive, notifyActive)
			continue
		}

		// Either no activity, or activity so old that it is already stale.
		kept = append(kept, e)
	}

	clear(k.expired[len(kept):])
	k.expired = kept
}

// reprogram sets the timer for the earliest deadline.
// It reports true if that deadline has already passed
// and the pass must run again.
func (k *kernel) reprogram() (again bool) {
	head := k.active.front()
	if head == nil {
		if k.timerArmed {
			k.timer.Disable()
			k.timerArmed = false
			k.timerDelay = 0
		}
		return false
	}

	now := k.now()
	if !now.before(head.deadline) {
		return true
	}

	d := tickDistance(now, head.deadline, k.maxTick)
	if limit := k.maxTick / 2; d > limit {
		// Wake at least twice per wrap so that now observes every wrap.
		d = limit
	}
	k.timer.Reset(d)
	k.timerArmed = true
	k.timerDelay = d
	return false
}

// release returns a deleted element's slot to the arena.
func (k *kernel) release(e *element) {
	e.where = placeNone
	e.lprev, e.lnext = nil, nil
	glog.WD(k.log, e.handle()).Debug("Released deleted watchdog")
	k.arena.free(e)
}

func (k *kernel) post(e *element, kind gwnotify.Kind, bit uint32) {
	if e.notify.Load()&bit == 0 {
		return
	}

	h := e.handle()
	ev := gwnotify.Event{
		Kind:       kind,
		SenderID:   e.sender.Load(),
		Index:      h.idx,
		Generation: h.gen,
		Tick:       k.lastTick,
	}
	if err := k.poster.Post(ev); err != nil {
		glog.WDE(k.log, h, err).Warn("Failed to post notification", "kind", kind)
	}
}
