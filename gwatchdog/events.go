package gwatchdog

import (
	"sync/atomic"

	"github.com/gordian-engine/gpms/internal/gchan"
)

// wakeReason is a bit in the worker's event group.
type wakeReason uint32

const (
	wakeRegistered wakeReason = 1 << iota
	wakeReactivated
	wakeDeleted
	wakeTimer
)

// eventGroup collects wake reasons from any goroutine
// and wakes the worker without ever blocking the setter.
type eventGroup struct {
	bits atomic.Uint32
	ch   chan struct{}
}

func newEventGroup() *eventGroup {
	return &eventGroup{ch: make(chan struct{}, 1)}
}

func (g *eventGroup) set(r wakeReason) {
	g.bits.Or(uint32(r))
	_ = gchan.TrySend(g.ch, struct{}{})
}

func (g *eventGroup) consume() wakeReason {
	return wakeReason(g.bits.Swap(0))
}
