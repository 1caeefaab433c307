// Package gwmemstore is an in-memory [gwstore.EventStore].
package gwmemstore

import (
	"context"
	"sync"
	"time"

	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/gwstore"
)

type EventStore struct {
	mu   sync.RWMutex
	recs []gwstore.Record
}

func NewEventStore() *EventStore {
	return new(EventStore)
}

func (s *EventStore) SaveEvent(_ context.Context, e gwnotify.Event, recordedAt time.Time) (uint64, error) {
	if err := gwstore.ValidateEvent(e); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := uint64(len(s.recs)) + 1
	s.recs = append(s.recs, gwstore.Record{
		Seq:        seq,
		Event:      e,
		RecordedAt: recordedAt.Truncate(time.Millisecond),
	})
	return seq, nil
}

func (s *EventStore) LoadEvents(_ context.Context, afterSeq uint64, limit int) ([]gwstore.Record, error) {
	if limit <= 0 {
		return nil, gwstore.InvalidLimitError{Limit: limit}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Sequence numbers are dense, so afterSeq is also the slice offset.
	if afterSeq >= uint64(len(s.recs)) {
		return nil, nil
	}
	recs := s.recs[afterSeq:]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]gwstore.Record(nil), recs...), nil
}

func (s *EventStore) LoadEventsByWatchdog(_ context.Context, index, generation uint32) ([]gwstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []gwstore.Record
	for _, r := range s.recs {
		if r.Event.Index == index && r.Event.Generation == generation {
			out = append(out, r)
		}
	}
	return out, nil
}
