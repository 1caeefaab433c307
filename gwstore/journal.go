package gwstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gordian-engine/gpms/gwnotify"
)

// Journal saves every event received on a channel into an [EventStore].
type Journal struct {
	log   *slog.Logger
	store EventStore

	mu    sync.Mutex
	saved uint64
	last  uint64

	done chan struct{}
}

// NewJournal starts a goroutine that saves events from the events channel
// until the channel is closed or ctx ends.
// The channel is typically from [*gwnotify.Hub.Subscribe].
// Failures to save are logged and the event is skipped.
func NewJournal(ctx context.Context, log *slog.Logger, store EventStore, events <-chan gwnotify.Event) *Journal {
	j := &Journal{
		log:   log,
		store: store,
		done:  make(chan struct{}),
	}
	go j.run(ctx, events)
	return j
}

// Wait blocks until the journal's goroutine has finished.
func (j *Journal) Wait() {
	<-j.done
}

// Saved reports the number of events saved so far
// and the sequence number of the most recent one.
func (j *Journal) Saved() (n, lastSeq uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saved, j.last
}

func (j *Journal) run(ctx context.Context, events <-chan gwnotify.Event) {
	defer close(j.done)

	for {
		select {
		case <-ctx.Done():
			j.log.Info("Stopping due to context cancellation", "cause", context.Cause(ctx))
			return

		case e, ok := <-events:
			if !ok {
				j.log.Info("Stopping due to closed event channel")
				return
			}

			seq, err := j.store.SaveEvent(ctx, e, time.Now())
			if err != nil {
				j.log.Warn("Failed to save event", "event", e, "err", err)
				continue
			}

			j.mu.Lock()
			j.saved++
			j.last = seq
			j.mu.Unlock()
		}
	}
}
