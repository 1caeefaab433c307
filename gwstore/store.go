// Package gwstore defines persistence for watchdog notification events.
package gwstore

import (
	"context"
	"time"

	"github.com/gordian-engine/gpms/gwnotify"
)

// Record is an event as stored, with its assigned sequence number.
type Record struct {
	// Sequence numbers start at 1 and increase with every saved event.
	Seq uint64

	Event gwnotify.Event

	// Stored at millisecond precision.
	RecordedAt time.Time
}

// EventStore is an append-only log of watchdog events.
type EventStore interface {
	// SaveEvent appends e and returns its sequence number.
	SaveEvent(ctx context.Context, e gwnotify.Event, recordedAt time.Time) (seq uint64, err error)

	// LoadEvents returns up to limit records with sequence numbers above afterSeq,
	// in ascending sequence order.
	LoadEvents(ctx context.Context, afterSeq uint64, limit int) ([]Record, error)

	// LoadEventsByWatchdog returns every record for the given watchdog handle,
	// in ascending sequence order.
	LoadEventsByWatchdog(ctx context.Context, index, generation uint32) ([]Record, error)
}
