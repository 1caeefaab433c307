package gwclock

import (
	"sync"
	"time"
)

// StandardTimer is a [Timer] backed by [time.AfterFunc].
type StandardTimer struct {
	period time.Duration
	fire   func()

	mu sync.Mutex
	t  *time.Timer

	// Incremented on every Reset and Disable,
	// so that a callback racing with a re-arm does not fire stale.
	epoch uint64
}

// NewStandardTimer returns a disabled timer whose ticks last period.
func NewStandardTimer(period time.Duration, fire func()) *StandardTimer {
	return &StandardTimer{
		period: period,
		fire:   fire,
	}
}

func (t *StandardTimer) Reset(delay uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.epoch++
	if t.t != nil {
		t.t.Stop()
	}

	epoch := t.epoch
	t.t = time.AfterFunc(time.Duration(delay)*t.period, func() {
		t.mu.Lock()
		current := t.epoch == epoch
		t.mu.Unlock()

		if current {
			t.fire()
		}
	})
}

func (t *StandardTimer) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.epoch++
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
