// Package gwclock defines the tick clock and hardware timer
// that the watchdog engine schedules against,
// and provides implementations backed by the Go runtime's timers.
package gwclock

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Clock is a monotonic tick counter that wraps to zero after Max.
type Clock interface {
	// Now returns the current tick, in the range [0, Max()].
	Now() uint32

	// Max is the largest value Now returns before wrapping to zero.
	Max() uint32

	// TicksPer100ms is the number of ticks in one watchdog timeout unit.
	TicksPer100ms() uint32
}

// Timer is a single one-shot timer measured in ticks of an associated [Clock].
//
// Reset replaces any pending expiry.
// When the delay elapses, the fire function given to the [TimerFactory] is called;
// fire may run on any goroutine and must not block.
type Timer interface {
	Reset(delay uint32)
	Disable()
}

// TimerFactory creates the Timer an engine uses,
// binding it to the engine's fire callback.
type TimerFactory func(fire func()) Timer

// TickClock is a [Clock] derived from the runtime's monotonic clock.
type TickClock struct {
	start  time.Time
	period time.Duration
	max    uint32
}

// TickClockConfig configures [NewTickClock].
type TickClockConfig struct {
	// Duration of one tick. Must evenly divide 100ms.
	Period time.Duration

	// Value before the counter wraps.
	// Zero means math.MaxUint32.
	Max uint32
}

func (c TickClockConfig) validate() error {
	var err error
	if c.Period <= 0 {
		err = errors.Join(err, errors.New("TickClockConfig.Period must be positive"))
	} else if (100*time.Millisecond)%c.Period != 0 {
		err = errors.Join(err, fmt.Errorf("TickClockConfig.Period (%s) must evenly divide 100ms", c.Period))
	}
	return err
}

// NewTickClock returns a TickClock whose tick zero is the moment of the call.
func NewTickClock(cfg TickClockConfig) (*TickClock, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	max := cfg.Max
	if max == 0 {
		max = math.MaxUint32
	}

	return &TickClock{
		start:  time.Now(),
		period: cfg.Period,
		max:    max,
	}, nil
}

func (c *TickClock) Now() uint32 {
	n := uint64(time.Since(c.start) / c.period)
	return uint32(n % (uint64(c.max) + 1))
}

func (c *TickClock) Max() uint32 {
	return c.max
}

func (c *TickClock) TicksPer100ms() uint32 {
	return uint32((100 * time.Millisecond) / c.period)
}

// Period reports the duration of one tick.
func (c *TickClock) Period() time.Duration {
	return c.period
}

// TimerFactory returns a [TimerFactory] producing [*StandardTimer] values
// that convert tick delays using c's period.
func (c *TickClock) TimerFactory() TimerFactory {
	return func(fire func()) Timer {
		return NewStandardTimer(c.period, fire)
	}
}
