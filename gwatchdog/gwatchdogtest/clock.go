// Package gwatchdogtest has deterministic clock, timer and notification
// fixtures for tests involving a [gwatchdog.Engine].
package gwatchdogtest

import (
	"math"
	"sync"

	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
)

// ManualClock is a [gwclock.Clock] that only moves on [*ManualClock.Advance].
// Timers created through [*ManualClock.TimerFactory] fire during Advance.
type ManualClock struct {
	mu sync.Mutex

	now, max, perHundredMs uint32

	// Ticks since creation, never wrapping; timer deadlines are kept on this scale.
	total uint64

	timers []*MockTimer
}

type ManualClockConfig struct {
	// Initial tick value.
	Start uint32

	// Value before the counter wraps to zero.
	// Defaults to math.MaxUint32.
	Max uint32

	// Defaults to 100, i.e. one tick per millisecond.
	TicksPer100ms uint32
}

func NewManualClock(cfg ManualClockConfig) *ManualClock {
	if cfg.Max == 0 {
		cfg.Max = math.MaxUint32
	}
	if cfg.TicksPer100ms == 0 {
		cfg.TicksPer100ms = 100
	}
	if cfg.Start > cfg.Max {
		panic("BUG: ManualClockConfig.Start must not exceed Max")
	}
	return &ManualClock{
		now:          cfg.Start,
		max:          cfg.Max,
		perHundredMs: cfg.TicksPer100ms,
	}
}

func (c *ManualClock) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Max() uint32           { return c.max }
func (c *ManualClock) TicksPer100ms() uint32 { return c.perHundredMs }

// Advance moves the clock forward by d ticks, wrapping past Max,
// and then fires every armed timer whose deadline has been reached.
func (c *ManualClock) Advance(d uint32) {
	c.mu.Lock()

	c.now = uint32((uint64(c.now) + uint64(d)) % (uint64(c.max) + 1))
	c.total += uint64(d)

	var fire []func()
	for _, t := range c.timers {
		if t.armed && t.deadline <= c.total {
			t.armed = false
			t.fired++
			fire = append(fire, t.fire)
		}
	}
	c.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

// TimerFactory returns a factory for timers driven by c.
func (c *ManualClock) TimerFactory() gwclock.TimerFactory {
	return func(fire func()) gwclock.Timer {
		c.mu.Lock()
		defer c.mu.Unlock()

		t := &MockTimer{c: c, fire: fire}
		c.timers = append(c.timers, t)
		return t
	}
}

// MockTimer is a one-shot [gwclock.Timer] driven by a [ManualClock].
type MockTimer struct {
	c    *ManualClock
	fire func()

	// Guarded by c.mu.
	armed    bool
	deadline uint64
	fired    int
}

func (t *MockTimer) Reset(delay uint32) {
	t.c.mu.Lock()
	t.deadline = t.c.total + uint64(delay)
	t.armed = delay > 0
	if delay == 0 {
		t.fired++
	}
	t.c.mu.Unlock()

	if delay == 0 {
		t.fire()
	}
}

func (t *MockTimer) Disable() {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.armed = false
}

// Remaining reports the ticks until t fires, and whether it is armed.
func (t *MockTimer) Remaining() (uint32, bool) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if !t.armed {
		return 0, false
	}
	return uint32(t.deadline - t.c.total), true
}

// Fired reports how many times t has fired.
func (t *MockTimer) Fired() int {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.fired
}
