//go:build debug

package gwatchdog

import (
	"fmt"

	"github.com/gordian-engine/gpms/gassert"
)

// invariantActiveOrder asserts that the active list links are consistent
// and that deadlines never decrease from head to tail.
func invariantActiveOrder(env gassert.Env, l *activeList) {
	if !env.Enabled("gwatchdog.kernel.active_order") {
		return
	}

	if l.n == 0 {
		if l.head != nil {
			env.HandleAssertionFailure(fmt.Errorf("empty active list has head slot %d", l.head.idx))
		}
		return
	}

	at := l.head
	for i := range l.n {
		if at.lnext.lprev != at {
			env.HandleAssertionFailure(fmt.Errorf(
				"active list links broken after slot %d at position %d", at.idx, i,
			))
			return
		}
		if i < l.n-1 && at.lnext.deadline.before(at.deadline) {
			env.HandleAssertionFailure(fmt.Errorf(
				"active list out of order at position %d: slot %d deadline %v precedes slot %d deadline %v",
				i, at.idx, at.deadline, at.lnext.idx, at.lnext.deadline,
			))
			return
		}
		at = at.lnext
	}

	if at != l.head {
		env.HandleAssertionFailure(fmt.Errorf(
			"active list of length %d did not return to head after full walk", l.n,
		))
	}
}

// invariantPlacement asserts that every element on the active list
// and in the expired array is recorded as being there, and only once.
func invariantPlacement(env gassert.Env, l *activeList, expired []*element) {
	if !env.Enabled("gwatchdog.kernel.placement") {
		return
	}

	seen := make(map[uint32]placement, l.n+len(expired))

	at := l.head
	for range l.n {
		if at.where != placeActive {
			env.HandleAssertionFailure(fmt.Errorf(
				"slot %d on active list has placement %d", at.idx, at.where,
			))
		}
		seen[at.idx] = placeActive
		at = at.lnext
	}

	for _, e := range expired {
		if e.where != placeExpired {
			env.HandleAssertionFailure(fmt.Errorf(
				"slot %d in expired array has placement %d", e.idx, e.where,
			))
		}
		if p, ok := seen[e.idx]; ok {
			env.HandleAssertionFailure(fmt.Errorf(
				"slot %d in expired array is also in placement %d", e.idx, p,
			))
		}
		seen[e.idx] = placeExpired
	}
}
