// Package gwatchdog provides an inactivity watchdog engine.
//
// An [Engine] manages many logical watchdogs over a single hardware timer.
// Each watchdog is created with a timeout in 100ms units.
// A subsystem that is alive calls [*Engine.Reset] on its watchdog;
// if no reset is observed for a full timeout,
// the watchdog expires and subscribers are notified.
// A later reset re-arms an expired watchdog.
//
// Creation publishes the watchdog into a bounded registration ring.
// One worker goroutine drains the ring, keeps armed watchdogs
// in a list ordered by deadline, keeps expired watchdogs in a flat array,
// and programs the hardware timer for the earliest deadline.
// The worker is the only writer of those structures;
// every public method only stamps fields on the watchdog and wakes the worker.
//
// Deadlines are measured on a 32-bit tick counter that wraps to zero.
// The worker counts observed wraps,
// so a deadline that lands after the next wrap is never mistaken
// for one that has already passed.
package gwatchdog
