package gwatchdog

import (
	"context"
	"math"
	"testing"

	"github.com/gordian-engine/gpms/gassert/gasserttest"
	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/internal/gtest"
	"github.com/stretchr/testify/require"
)

// stepClock is a minimal clock for tests that drive the kernel directly.
type stepClock struct {
	now, max uint32
}

func (c *stepClock) Now() uint32           { return c.now }
func (c *stepClock) Max() uint32           { return c.max }
func (c *stepClock) TicksPer100ms() uint32 { return 100 }

// recordTimer records the last requested delay and never fires.
type recordTimer struct {
	armed bool
	delay uint32
}

func (t *recordTimer) Reset(d uint32) { t.armed, t.delay = true, d }
func (t *recordTimer) Disable()       { t.armed = false }

type manualEngine struct {
	*Engine
	k     *kernel
	clock *stepClock
	timer *recordTimer
	posts []gwnotify.Event
}

// newManualEngine returns an engine whose worker is not running;
// the test calls k.pass itself.
func newManualEngine(t *testing.T, cfg Config) *manualEngine {
	t.Helper()

	m := &manualEngine{
		clock: &stepClock{max: math.MaxUint32},
		timer: new(recordTimer),
	}
	cfg.Clock = m.clock
	cfg.NewTimer = func(func()) gwclock.Timer { return m.timer }
	cfg.Poster = gwnotify.PosterFunc(func(e gwnotify.Event) error {
		m.posts = append(m.posts, e)
		return nil
	})
	cfg.AssertEnv = gasserttest.DefaultEnv()

	e, k, err := newEngine(context.Background(), gtest.NewLogger(t), cfg)
	require.NoError(t, err)
	m.Engine, m.k = e, k
	return m
}
