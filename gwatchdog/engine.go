package gwatchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/internal/gchan"
)

// Engine manages a set of watchdogs driven by one timer.
// All methods are safe for concurrent use.
type Engine struct {
	log *slog.Logger

	rootCtx context.Context

	clock  gwclock.Clock
	poster gwnotify.Poster

	arena  *arena
	ring   *registrationRing
	events *eventGroup

	snapshotRequests chan snapshotRequest

	wg sync.WaitGroup
}

// NewEngine returns a started Engine.
// The engine runs until ctx is cancelled; use [*Engine.Wait] to block
// until its goroutines have finished.
func NewEngine(ctx context.Context, log *slog.Logger, cfg Config) (*Engine, error) {
	e, k, err := newEngine(ctx, log, cfg)
	if err != nil {
		return nil, err
	}

	e.wg.Add(1)
	go k.run(ctx, &e.wg, e.snapshotRequests)

	return e, nil
}

// newEngine builds the engine and its kernel without starting the worker.
func newEngine(ctx context.Context, log *slog.Logger, cfg Config) (*Engine, *kernel, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	e := &Engine{
		log: log,

		rootCtx: ctx,

		clock:  cfg.Clock,
		poster: cfg.Poster,

		arena:  newArena(cfg.Capacity),
		ring:   newRegistrationRing(cfg.RingSize),
		events: newEventGroup(),

		snapshotRequests: make(chan snapshotRequest),
	}

	timer := cfg.NewTimer(func() {
		e.events.set(wakeTimer)
	})

	k := &kernel{
		log: log.With("sys", "kernel"),

		clock:  cfg.Clock,
		timer:  timer,
		poster: cfg.Poster,

		arena:  e.arena,
		ring:   e.ring,
		events: e.events,

		expired: make([]*element, 0, cfg.Capacity),
		scratch: make([]*element, 0, cfg.Capacity),

		maxTick:       cfg.Clock.Max(),
		ticksPer100ms: cfg.Clock.TicksPer100ms(),

		assertEnv: cfg.AssertEnv,
	}
	k.lastTick = k.clock.Now()

	return e, k, nil
}

// Wait blocks until the engine's goroutines have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Create allocates a watchdog with the given timeout in 100ms units.
// The watchdog starts as if it had just been reset.
//
// The timeout must span at most half the clock range,
// so the worker still sees a counter wrap when it wakes late by up to that margin.
func (e *Engine) Create(timeout uint16) (Handle, error) {
	if e.rootCtx.Err() != nil {
		return Handle{}, ErrEngineStopped
	}
	if timeout == 0 {
		return Handle{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidTimeout)
	}
	if limit := e.clock.Max() / 2; uint64(timeout)*uint64(e.clock.TicksPer100ms()) > uint64(limit) {
		return Handle{}, fmt.Errorf(
			"%w: timeout of %d00ms exceeds half the clock range (%d ticks)",
			ErrInvalidTimeout, timeout, limit,
		)
	}

	el, ok := e.arena.alloc()
	if !ok {
		return Handle{}, ErrNoCapacity
	}

	el.timeout.Store(uint32(timeout))
	el.activity.Store(packActivity(1, e.clock.Now()))
	el.where = placeRing
	h := el.handle()

	if !e.ring.push(el) {
		el.timeout.Store(0)
		el.where = placeNone
		e.arena.free(el)
		return Handle{}, ErrRingFull
	}

	e.events.set(wakeRegistered)
	return h, nil
}

func (e *Engine) lookup(h Handle) (*element, error) {
	el, ok := e.arena.lookup(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	return el, nil
}

// Reset records activity on the watchdog.
// A reset on an expired watchdog re-arms it.
func (e *Engine) Reset(h Handle) error {
	if e.rootCtx.Err() != nil {
		return ErrEngineStopped
	}

	el, err := e.lookup(h)
	if err != nil {
		return err
	}
	if el.deleted() {
		return ErrDeleted
	}

	el.stamp(e.clock.Now())

	if el.isExpired() {
		e.events.set(wakeReactivated)
	}
	return nil
}

// Delete removes the watchdog.
//
// Blocking queries on the watchdog return [StatusDeleted].
// If the watchdog was subscribed to deleted notifications,
// the notification is posted before Delete returns;
// a post failure is returned as a [NotificationError],
// but the watchdog is deleted regardless.
// Delete still works after the engine has stopped,
// though the slot is then never reused.
func (e *Engine) Delete(h Handle) error {
	el, err := e.lookup(h)
	if err != nil {
		return err
	}

	for {
		t := el.timeout.Load()
		if t == 0 {
			return ErrDeleted
		}
		if el.timeout.CompareAndSwap(t, 0) {
			break
		}
	}

	el.wakeWaiters()

	var postErr error
	if el.notify.Load()&notifyDeleted != 0 {
		ev := gwnotify.Event{
			Kind:       gwnotify.KindDeleted,
			SenderID:   el.sender.Load(),
			Index:      h.idx,
			Generation: h.gen,
			Tick:       e.clock.Now(),
		}
		if err := e.poster.Post(ev); err != nil {
			postErr = NotificationError{Kind: gwnotify.KindDeleted, Err: err}
		}
	}

	e.events.set(wakeDeleted)
	return postErr
}

// IsExpired reports the watchdog's status.
// If blocking is set, it waits until the watchdog is expired or deleted,
// or until ctx ends, in which case the context cause is returned.
// A blocking call returns [ErrEngineStopped] once the engine has stopped,
// as no further transitions can happen.
func (e *Engine) IsExpired(ctx context.Context, h Handle, blocking bool) (Status, error) {
	return e.query(ctx, h, blocking, StatusExpired)
}

// IsActive is like [*Engine.IsExpired],
// but a blocking call waits for the watchdog to be not expired.
func (e *Engine) IsActive(ctx context.Context, h Handle, blocking bool) (Status, error) {
	return e.query(ctx, h, blocking, StatusNotExpired)
}

func (e *Engine) query(ctx context.Context, h Handle, blocking bool, want Status) (Status, error) {
	el, err := e.lookup(h)
	if err != nil {
		return StatusInvalid, err
	}

	for {
		st, changed, ok := el.status(h.gen)
		if !ok {
			return StatusInvalid, ErrInvalidHandle
		}
		if !blocking || st == want || st == StatusDeleted {
			return st, nil
		}

		select {
		case <-ctx.Done():
			return st, context.Cause(ctx)
		case <-e.rootCtx.Done():
			return st, ErrEngineStopped
		case <-changed:
		}
	}
}

// SetNotification subscribes the watchdog's transitions into the given status
// to notifications posted with senderID.
// Subscriptions accumulate; there is no unsubscribe.
// The most recent senderID applies to every subscribed kind.
func (e *Engine) SetNotification(h Handle, kind Status, senderID uint64) error {
	var bit uint32
	switch kind {
	case StatusNotExpired:
		bit = notifyActive
	case StatusExpired:
		bit = notifyExpired
	case StatusDeleted:
		bit = notifyDeleted
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, kind)
	}

	el, err := e.lookup(h)
	if err != nil {
		return err
	}
	if el.deleted() {
		return ErrDeleted
	}

	el.sender.Store(senderID)
	el.notify.Or(bit)
	return nil
}

// SetNotificationType is the older form of [*Engine.SetNotification].
// The notifyType argument is ignored.
//
// Deprecated: use SetNotification.
func (e *Engine) SetNotificationType(h Handle, kind Status, senderID uint64, _ uint8) error {
	return e.SetNotification(h, kind, senderID)
}

// Snapshot runs a worker pass and reports the engine's internal state
// at the end of that pass.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	if e.rootCtx.Err() != nil {
		return Snapshot{}, ErrEngineStopped
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(e.rootCtx, func() {
		cancel(ErrEngineStopped)
	})
	defer stop()

	req := snapshotRequest{Resp: make(chan Snapshot, 1)}
	s, ok := gchan.ReqResp(ctx, e.log, e.snapshotRequests, req, req.Resp, "snapshot")
	if !ok {
		err := context.Cause(ctx)
		if errors.Is(err, ErrEngineStopped) {
			return Snapshot{}, ErrEngineStopped
		}
		return Snapshot{}, err
	}
	return s, nil
}
