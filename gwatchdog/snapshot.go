package gwatchdog

type snapshotRequest struct {
	Resp chan Snapshot
}

// Snapshot is the engine state reported by [*Engine.Snapshot].
type Snapshot struct {
	// Clock tick when the snapshot was taken.
	Tick uint32

	// Number of created watchdogs not yet taken from the registration ring.
	Pending int

	// Armed watchdogs, earliest deadline first.
	Active []WatchdogState

	// Expired watchdogs, in order of expiry.
	Expired []WatchdogState

	// Whether the timer is set, and its delay in ticks when it was last set.
	TimerArmed bool
	TimerDelay uint32

	// Number of allocated arena slots, including pending and deleted ones.
	Live int
}

// WatchdogState describes one watchdog in a [Snapshot].
type WatchdogState struct {
	Handle Handle

	// In 100ms units.
	Timeout uint16

	// Tick of the next inactivity check.
	Deadline uint32

	// Set when Deadline is only reached after the tick counter wraps.
	Rollover bool
}

func (k *kernel) snapshot() Snapshot {
	now := k.now()

	s := Snapshot{
		Tick:       now.tick,
		Pending:    k.ring.len(),
		TimerArmed: k.timerArmed,
		TimerDelay: k.timerDelay,
		Live:       k.arena.live(),
	}

	k.scratch = k.active.appendTo(k.scratch[:0])
	if len(k.scratch) > 0 {
		s.Active = make([]WatchdogState, len(k.scratch))
		for i, e := range k.scratch {
			s.Active[i] = k.state(e, now)
		}
	}
	clear(k.scratch)
	k.scratch = k.scratch[:0]

	if len(k.expired) > 0 {
		s.Expired = make([]WatchdogState, len(k.expired))
		for i, e := range k.expired {
			s.Expired[i] = k.state(e, now)
		}
	}

	return s
}

func (k *kernel) state(e *element, now tickTime) WatchdogState {
	return WatchdogState{
		Handle:   e.handle(),
		Timeout:  uint16(e.timeout.Load()),
		Deadline: e.deadline.tick,
		Rollover: e.deadline.epoch > now.epoch,
	}
}
