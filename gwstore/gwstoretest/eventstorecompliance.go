package gwstoretest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/gwstore"
	"github.com/stretchr/testify/require"
)

type EventStoreFactory func(cleanup func(func())) (gwstore.EventStore, error)

func TestEventStoreCompliance(t *testing.T, f EventStoreFactory) {
	ctx := context.Background()

	// A fixed time with sub-millisecond precision that stores may drop.
	at := time.Date(2024, time.March, 1, 12, 30, 0, 123_456_789, time.UTC)

	newStore := func(t *testing.T) gwstore.EventStore {
		t.Helper()
		s, err := f(t.Cleanup)
		require.NoError(t, err)
		return s
	}

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		recs, err := s.LoadEvents(ctx, 0, 10)
		require.NoError(t, err)
		require.Empty(t, recs)

		recs, err = s.LoadEventsByWatchdog(ctx, 0, 1)
		require.NoError(t, err)
		require.Empty(t, recs)
	})

	t.Run("save and load in order", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		evs := []gwnotify.Event{
			{Kind: gwnotify.KindActive, SenderID: 1, Index: 0, Generation: 1, Tick: 0},
			{Kind: gwnotify.KindExpired, SenderID: 1, Index: 0, Generation: 1, Tick: 100},
			{Kind: gwnotify.KindActive, SenderID: 2, Index: 1, Generation: 1, Tick: 110},
			{Kind: gwnotify.KindDeleted, SenderID: 1, Index: 0, Generation: 1, Tick: 150},
		}
		for i, e := range evs {
			seq, err := s.SaveEvent(ctx, e, at.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.Equal(t, uint64(i+1), seq)
		}

		recs, err := s.LoadEvents(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, recs, len(evs))
		for i, r := range recs {
			require.Equal(t, uint64(i+1), r.Seq)
			require.Equal(t, evs[i], r.Event)
			require.Equal(t, at.Add(time.Duration(i)*time.Second).UnixMilli(), r.RecordedAt.UnixMilli())
		}

		t.Run("after sequence", func(t *testing.T) {
			recs, err := s.LoadEvents(ctx, 2, 10)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			require.Equal(t, uint64(3), recs[0].Seq)
			require.Equal(t, evs[2], recs[0].Event)
		})

		t.Run("limit", func(t *testing.T) {
			recs, err := s.LoadEvents(ctx, 1, 2)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			require.Equal(t, uint64(2), recs[0].Seq)
			require.Equal(t, uint64(3), recs[1].Seq)
		})

		t.Run("past the end", func(t *testing.T) {
			recs, err := s.LoadEvents(ctx, 4, 10)
			require.NoError(t, err)
			require.Empty(t, recs)
		})

		t.Run("by watchdog", func(t *testing.T) {
			recs, err := s.LoadEventsByWatchdog(ctx, 0, 1)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			for _, r := range recs {
				require.Equal(t, uint32(0), r.Event.Index)
				require.Equal(t, uint32(1), r.Event.Generation)
			}
			require.Equal(t, gwnotify.KindDeleted, recs[2].Event.Kind)

			// Same index, different generation.
			recs, err = s.LoadEventsByWatchdog(ctx, 0, 2)
			require.NoError(t, err)
			require.Empty(t, recs)
		})
	})

	t.Run("full width values", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		e := gwnotify.Event{
			Kind:       gwnotify.KindExpired,
			SenderID:   math.MaxUint64,
			Index:      math.MaxUint32,
			Generation: math.MaxUint32,
			Tick:       math.MaxUint32,
		}
		_, err := s.SaveEvent(ctx, e, at)
		require.NoError(t, err)

		recs, err := s.LoadEventsByWatchdog(ctx, math.MaxUint32, math.MaxUint32)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.Equal(t, e, recs[0].Event)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		_, err := s.SaveEvent(ctx, gwnotify.Event{Kind: gwnotify.KindInvalid}, at)
		require.ErrorAs(t, err, new(gwstore.InvalidEventKindError))

		_, err = s.LoadEvents(ctx, 0, 0)
		require.ErrorAs(t, err, new(gwstore.InvalidLimitError))

		// Nothing was saved.
		recs, err := s.LoadEvents(ctx, 0, 1)
		require.NoError(t, err)
		require.Empty(t, recs)
	})
}
