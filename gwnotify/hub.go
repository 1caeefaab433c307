package gwnotify

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordian-engine/gpms/internal/gchan"
)

// ErrHubClosed is returned from [*Hub.Post] after [*Hub.Close].
var ErrHubClosed = errors.New("notification hub closed")

// Hub is a [Poster] that fans events out to any number of subscribers.
//
// Delivery is best effort: a subscriber whose buffer is full
// misses the event, and the miss is counted in [*Hub.Dropped].
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	closed bool

	posted  atomic.Uint64
	dropped atomic.Uint64
}

type subscription struct {
	ch      chan Event
	dropped atomic.Uint64
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[*subscription]struct{}),
	}
}

// Subscribe returns a channel receiving future events
// and a function to end the subscription.
// The channel is closed when the subscription ends or the hub is closed.
func (h *Hub) Subscribe(buf int) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, buf)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	h.subs[s] = struct{}{}

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[s]; ok {
				delete(h.subs, s)
				close(s.ch)
			}
		})
	}
}

func (h *Hub) Post(e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	h.posted.Add(1)
	for s := range h.subs {
		if !gchan.TrySend(s.ch, e) {
			h.dropped.Add(1)
			if s.dropped.Add(1) == 1 {
				// Only the first drop per subscriber, to avoid flooding the log.
				h.log.Warn("Dropping notification for slow subscriber", "event", e)
			}
		}
	}
	return nil
}

// Posted reports how many events were accepted by Post.
func (h *Hub) Posted() uint64 { return h.posted.Load() }

// Dropped reports how many per-subscriber deliveries were skipped
// because the subscriber's buffer was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close ends every subscription. Later calls to Post return [ErrHubClosed].
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
	}
	clear(h.subs)
}
