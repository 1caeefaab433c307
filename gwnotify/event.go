// Package gwnotify carries watchdog transition notifications
// from the watchdog engine to interested subscribers.
package gwnotify

import (
	"fmt"
	"log/slog"
)

// Kind is the transition a notification reports.
type Kind uint8

//go:generate go run golang.org/x/tools/cmd/stringer -type Kind -trimprefix=Kind .

const (
	KindInvalid Kind = iota

	// The watchdog was armed, either when first registered
	// or when activity re-armed it after expiry.
	KindActive

	// The watchdog saw no activity for its full timeout.
	KindExpired

	// The watchdog was deleted.
	KindDeleted
)

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindInvalid; c <= KindDeleted; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Event is a single watchdog transition.
type Event struct {
	Kind Kind

	// Sender ID recorded when the subscription was set.
	SenderID uint64

	// Arena index and generation of the watchdog handle.
	Index, Generation uint32

	// Clock tick when the transition was observed.
	Tick uint32
}

func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", e.Kind.String()),
		slog.Uint64("sender", e.SenderID),
		slog.Any("idx", e.Index),
		slog.Any("gen", e.Generation),
		slog.Any("tick", e.Tick),
	)
}

// Poster accepts events from the watchdog engine.
//
// Post is called from the engine's worker goroutine,
// except for deleted events which are posted by the caller of Delete.
// Implementations must not block.
type Poster interface {
	Post(Event) error
}

// PosterFunc adapts a plain function to [Poster].
type PosterFunc func(Event) error

func (f PosterFunc) Post(e Event) error {
	return f(e)
}

// NopPoster discards every event.
type NopPoster struct{}

func (NopPoster) Post(Event) error { return nil }
