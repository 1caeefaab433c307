package gwatchdog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordian-engine/gpms/gwnotify"
)

var (
	// ErrInvalidHandle is returned for handles that were never issued
	// or whose arena slot has since been reused.
	ErrInvalidHandle = errors.New("invalid watchdog handle")

	// ErrInvalidTimeout is returned from [*Engine.Create] for a zero timeout
	// or one whose tick span does not fit on the clock.
	ErrInvalidTimeout = errors.New("invalid watchdog timeout")

	// ErrInvalidStatus is returned when subscribing to a status
	// that has no notification.
	ErrInvalidStatus = errors.New("invalid watchdog notification status")

	ErrNoCapacity = errors.New("no free watchdog slots")
	ErrRingFull   = errors.New("watchdog registration ring is full")

	// ErrDeleted is returned when modifying a watchdog that has been deleted.
	ErrDeleted = errors.New("watchdog deleted")

	// ErrEngineStopped is returned from calls that need the worker
	// after the engine's context has ended.
	ErrEngineStopped = errors.New("watchdog engine stopped")
)

// NotificationError wraps a failure from the configured [gwnotify.Poster].
type NotificationError struct {
	Kind gwnotify.Kind
	Err  error
}

func (e NotificationError) Error() string {
	return fmt.Sprintf("failed to post %s notification: %v", e.Kind, e.Err)
}

func (e NotificationError) Unwrap() error {
	return e.Err
}

// ExpiredError is the context cause set by [*Engine.Supervise]
// when the supervised watchdog expires.
type ExpiredError struct {
	Name   string
	Handle Handle
}

func (e ExpiredError) Error() string {
	return "watchdog " + e.Name + " (" + e.Handle.String() + ") expired"
}

// IsExpiry reports whether the context was cancelled
// because a supervised watchdog expired.
func IsExpiry(ctx context.Context) bool {
	e := context.Cause(ctx)
	if e == nil {
		return false
	}

	var ee ExpiredError
	return errors.As(e, &ee)
}

func errDoubleFree(idx uint32) error {
	return fmt.Errorf("BUG: freeing watchdog slot %d which is not allocated", idx)
}

func errNotActive(idx uint32, where placement) error {
	return fmt.Errorf("BUG: removing watchdog slot %d from active list while in placement %d", idx, where)
}
