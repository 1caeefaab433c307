package gwatchdogtest

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gordian-engine/gpms/gassert/gasserttest"
	"github.com/gordian-engine/gpms/gwatchdog"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/internal/gtest"
	"github.com/stretchr/testify/require"
)

// Fixture bundles a [ManualClock], a [Recorder]
// and an engine configuration using them.
type Fixture struct {
	Log *slog.Logger

	Clock    *ManualClock
	Recorder *Recorder

	Config gwatchdog.Config
}

// NewFixture returns a Fixture with a clock of one tick per millisecond
// that wraps at math.MaxUint32.
// Use [NewFixtureWithClock] for a different clock.
func NewFixture(t testing.TB) *Fixture {
	return NewFixtureWithClock(t, ManualClockConfig{})
}

func NewFixtureWithClock(t testing.TB, cc ManualClockConfig) *Fixture {
	t.Helper()

	c := NewManualClock(cc)
	r := new(Recorder)
	return &Fixture{
		Log: gtest.NewLogger(t),

		Clock:    c,
		Recorder: r,

		Config: gwatchdog.Config{
			Clock:     c,
			NewTimer:  c.TimerFactory(),
			Poster:    r,
			AssertEnv: gasserttest.DefaultEnv(),
		},
	}
}

// NewEngine starts an engine from f.Config.
// The engine stops when ctx is cancelled,
// and test cleanup waits for it.
func (f *Fixture) NewEngine(t testing.TB, ctx context.Context) *gwatchdog.Engine {
	t.Helper()

	e, err := gwatchdog.NewEngine(ctx, f.Log, f.Config)
	require.NoError(t, err)
	t.Cleanup(e.Wait)
	return e
}

// Sync forces a worker pass and returns the resulting snapshot.
func (f *Fixture) Sync(t testing.TB, e *gwatchdog.Engine) gwatchdog.Snapshot {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gtest.ScaleMs(2000)))
	defer cancel()

	s, err := e.Snapshot(ctx)
	require.NoError(t, err)
	return s
}

// Recorder is a [gwnotify.Poster] that keeps every event it is given.
type Recorder struct {
	mu     sync.Mutex
	events []gwnotify.Event
	err    error
}

func (r *Recorder) Post(e gwnotify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// FailWith makes later posts return err instead of recording.
// A nil err restores recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []gwnotify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gwnotify.Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events, in order.
func (r *Recorder) Kinds() []gwnotify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]gwnotify.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}
