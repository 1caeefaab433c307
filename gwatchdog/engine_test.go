package gwatchdog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gordian-engine/gpms/gwatchdog"
	"github.com/gordian-engine/gpms/gwatchdog/gwatchdogtest"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/internal/gtest"
	"github.com/stretchr/testify/require"
)

func status(t *testing.T, e *gwatchdog.Engine, h gwatchdog.Handle) gwatchdog.Status {
	t.Helper()
	st, err := e.IsExpired(context.Background(), h, false)
	require.NoError(t, err)
	return st
}

func TestNewEngine_invalidConfig(t *testing.T) {
	t.Parallel()

	_, err := gwatchdog.NewEngine(context.Background(), gtest.NewLogger(t), gwatchdog.Config{})
	require.Error(t, err)
	require.ErrorContains(t, err, "Clock must not be nil")
	require.ErrorContains(t, err, "NewTimer must not be nil")
}

func TestEngine_Create_invalidTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixtureWithClock(t, gwatchdogtest.ManualClockConfig{Max: 999})
	e := f.NewEngine(t, ctx)

	_, err := e.Create(0)
	require.ErrorIs(t, err, gwatchdog.ErrInvalidTimeout)

	// 5 * 100 ticks is more than half of a 1000-tick range.
	_, err = e.Create(5)
	require.ErrorIs(t, err, gwatchdog.ErrInvalidTimeout)

	h, err := e.Create(4)
	require.NoError(t, err)
	require.False(t, h.IsZero())
}

func TestEngine_createThenQuery(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(2)
	require.NoError(t, err)

	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))

	st, err := e.IsActive(ctx, h, false)
	require.NoError(t, err)
	require.Equal(t, gwatchdog.StatusNotExpired, st)
}

func TestEngine_expiresAfterTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)

	s := f.Sync(t, e)
	require.Zero(t, s.Pending)
	require.Len(t, s.Active, 1)
	require.Equal(t, h, s.Active[0].Handle)
	require.Equal(t, uint32(100), s.Active[0].Deadline)
	require.False(t, s.Active[0].Rollover)
	require.True(t, s.TimerArmed)
	require.Equal(t, uint32(100), s.TimerDelay)

	f.Clock.Advance(99)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))

	f.Clock.Advance(1)
	s = f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
	require.Empty(t, s.Active)
	require.Len(t, s.Expired, 1)
	require.False(t, s.TimerArmed)
}

func TestEngine_resetScenario(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	f.Clock.Advance(5)
	require.NoError(t, e.Reset(h))

	f.Clock.Advance(95)
	require.NoError(t, e.Reset(h))

	s := f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
	require.Equal(t, uint32(200), s.Active[0].Deadline)

	f.Clock.Advance(150)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
}

func TestEngine_activitySuppressesExpiry(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)
	require.NoError(t, e.SetNotification(h, gwatchdog.StatusExpired, 1))

	for range 20 {
		f.Clock.Advance(50)
		require.NoError(t, e.Reset(h))
		f.Sync(t, e)
		require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
	}

	require.Empty(t, f.Recorder.Events())
}

func TestEngine_repeatedResetIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	f.Clock.Advance(10)
	for range 3 {
		require.NoError(t, e.Reset(h))
	}

	s := f.Sync(t, e)
	require.Len(t, s.Active, 1)
	require.Equal(t, uint32(110), s.Active[0].Deadline)

	f.Clock.Advance(100)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
}

func TestEngine_resetAfterExpiryRearms(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	require.NoError(t, e.SetNotification(h, gwatchdog.StatusExpired, 42))
	require.NoError(t, e.SetNotification(h, gwatchdog.StatusNotExpired, 42))

	f.Clock.Advance(100)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
	require.Equal(t, []gwnotify.Kind{gwnotify.KindExpired}, f.Recorder.Kinds())

	f.Clock.Advance(30)
	require.NoError(t, e.Reset(h))
	s := f.Sync(t, e)

	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
	require.Empty(t, s.Expired)
	require.Len(t, s.Active, 1)
	require.Equal(t, uint32(230), s.Active[0].Deadline)

	evs := f.Recorder.Events()
	require.Equal(t, []gwnotify.Kind{gwnotify.KindExpired, gwnotify.KindActive}, f.Recorder.Kinds())
	for _, ev := range evs {
		require.Equal(t, uint64(42), ev.SenderID)
		require.Equal(t, h.Index(), ev.Index)
		require.Equal(t, h.Generation(), ev.Generation)
	}
	require.Equal(t, uint32(100), evs[0].Tick)
	require.Equal(t, uint32(130), evs[1].Tick)
}

func TestEngine_rolloverDeadlineNotExpiredEarly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixtureWithClock(t, gwatchdogtest.ManualClockConfig{
		Start: 950,
		Max:   999,
	})
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)

	s := f.Sync(t, e)
	require.Len(t, s.Active, 1)
	require.Equal(t, uint32(50), s.Active[0].Deadline)
	require.True(t, s.Active[0].Rollover)
	require.Equal(t, uint32(100), s.TimerDelay)

	// Numerically 999 is past the deadline of 50, but the deadline is after the wrap.
	f.Clock.Advance(49)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))

	f.Clock.Advance(11)
	s = f.Sync(t, e)
	require.Equal(t, uint32(10), s.Tick)
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
	require.False(t, s.Active[0].Rollover)
	require.Equal(t, uint32(40), s.TimerDelay)

	f.Clock.Advance(40)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
}

func TestEngine_wrapMakesEarlierDeadlineOverdue(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixtureWithClock(t, gwatchdogtest.ManualClockConfig{
		Start: 850,
		Max:   999,
	})
	e := f.NewEngine(t, ctx)

	early, err := e.Create(1) // Deadline 950, before the wrap.
	require.NoError(t, err)
	late, err := e.Create(3) // Deadline 150, after the wrap.
	require.NoError(t, err)

	s := f.Sync(t, e)
	require.Len(t, s.Active, 2)
	require.Equal(t, early, s.Active[0].Handle)
	require.Equal(t, late, s.Active[1].Handle)
	require.True(t, s.Active[1].Rollover)

	// Now at 50, past the wrap and past the early deadline.
	f.Clock.Advance(200)
	s = f.Sync(t, e)
	require.Equal(t, uint32(50), s.Tick)

	require.Equal(t, gwatchdog.StatusExpired, status(t, e, early))
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, late))
	require.Equal(t, uint32(100), s.TimerDelay)
}

func TestEngine_lateWakeAcrossWrapExpires(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixtureWithClock(t, gwatchdogtest.ManualClockConfig{
		Start: 700,
		Max:   999,
	})
	e := f.NewEngine(t, ctx)

	h, err := e.Create(4)
	require.NoError(t, err)

	s := f.Sync(t, e)
	require.Len(t, s.Active, 1)
	require.Equal(t, uint32(100), s.Active[0].Deadline)
	require.True(t, s.Active[0].Rollover)
	require.Equal(t, uint32(400), s.TimerDelay)

	// One jump past the wrap, landing 450 ticks after the deadline.
	f.Clock.Advance(850)
	s = f.Sync(t, e)
	require.Equal(t, uint32(550), s.Tick)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))
	require.Empty(t, s.Active)
	require.Len(t, s.Expired, 1)
}

func TestEngine_earliestDeadlineDrivesTimer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	slow, err := e.Create(5)
	require.NoError(t, err)
	fast, err := e.Create(2)
	require.NoError(t, err)

	s := f.Sync(t, e)
	require.Equal(t, fast, s.Active[0].Handle)
	require.Equal(t, slow, s.Active[1].Handle)
	require.Equal(t, uint32(200), s.TimerDelay)

	f.Clock.Advance(200)
	s = f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, fast))
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, slow))
	require.Equal(t, uint32(300), s.TimerDelay)
}

func TestEngine_Delete(t *testing.T) {
	t.Parallel()

	t.Run("active", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		f.Sync(t, e)

		require.NoError(t, e.Delete(h))
		require.Equal(t, gwatchdog.StatusDeleted, status(t, e, h))

		s := f.Sync(t, e)
		require.Empty(t, s.Active)
		require.Zero(t, s.Live)
		require.False(t, s.TimerArmed)

		require.ErrorIs(t, e.Reset(h), gwatchdog.ErrDeleted)
		require.ErrorIs(t, e.Delete(h), gwatchdog.ErrDeleted)
		require.ErrorIs(t, e.SetNotification(h, gwatchdog.StatusExpired, 1), gwatchdog.ErrDeleted)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		f.Sync(t, e)
		f.Clock.Advance(100)
		f.Sync(t, e)
		require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))

		require.NoError(t, e.Delete(h))
		s := f.Sync(t, e)
		require.Empty(t, s.Expired)
		require.Zero(t, s.Live)
		require.Equal(t, gwatchdog.StatusDeleted, status(t, e, h))
	})

	t.Run("posts deleted notification", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		require.NoError(t, e.SetNotification(h, gwatchdog.StatusDeleted, 3))

		require.NoError(t, e.Delete(h))
		evs := f.Recorder.Events()
		require.Len(t, evs, 1)
		require.Equal(t, gwnotify.KindDeleted, evs[0].Kind)
		require.Equal(t, uint64(3), evs[0].SenderID)
	})

	t.Run("notification failure still deletes", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		require.NoError(t, e.SetNotification(h, gwatchdog.StatusDeleted, 3))

		postErr := errors.New("queue full")
		f.Recorder.FailWith(postErr)

		err = e.Delete(h)
		require.ErrorIs(t, err, postErr)

		var ne gwatchdog.NotificationError
		require.ErrorAs(t, err, &ne)
		require.Equal(t, gwnotify.KindDeleted, ne.Kind)

		require.Equal(t, gwatchdog.StatusDeleted, status(t, e, h))
		require.Zero(t, f.Sync(t, e).Live)
	})
}

func TestEngine_handleReuse(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	f.Config.Capacity = 1
	e := f.NewEngine(t, ctx)

	h1, err := e.Create(1)
	require.NoError(t, err)

	_, err = e.Create(1)
	require.ErrorIs(t, err, gwatchdog.ErrNoCapacity)

	require.NoError(t, e.Delete(h1))
	f.Sync(t, e) // Releases the slot.

	h2, err := e.Create(1)
	require.NoError(t, err)
	require.Equal(t, h1.Index(), h2.Index())
	require.NotEqual(t, h1.Generation(), h2.Generation())

	_, err = e.IsExpired(ctx, h1, false)
	require.ErrorIs(t, err, gwatchdog.ErrInvalidHandle)
	require.ErrorIs(t, e.Reset(h1), gwatchdog.ErrInvalidHandle)
	require.ErrorIs(t, e.Delete(h1), gwatchdog.ErrInvalidHandle)

	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h2))
}

func TestEngine_invalidHandles(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	for _, h := range []gwatchdog.Handle{{}, gwatchdog.MakeHandle(9999, 1), gwatchdog.MakeHandle(0, 1)} {
		_, err := e.IsExpired(ctx, h, false)
		require.ErrorIs(t, err, gwatchdog.ErrInvalidHandle)
		_, err = e.IsActive(ctx, h, true)
		require.ErrorIs(t, err, gwatchdog.ErrInvalidHandle)
		require.ErrorIs(t, e.Reset(h), gwatchdog.ErrInvalidHandle)
		require.ErrorIs(t, e.Delete(h), gwatchdog.ErrInvalidHandle)
		require.ErrorIs(t, e.SetNotification(h, gwatchdog.StatusExpired, 1), gwatchdog.ErrInvalidHandle)
	}
}

func TestEngine_SetNotification(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	require.ErrorIs(t, e.SetNotification(h, gwatchdog.StatusInvalid, 1), gwatchdog.ErrInvalidStatus)
	require.ErrorIs(t, e.SetNotification(h, gwatchdog.Status(200), 1), gwatchdog.ErrInvalidStatus)

	// The deprecated form ignores its last argument.
	require.NoError(t, e.SetNotificationType(h, gwatchdog.StatusExpired, 8, 0xff))

	f.Clock.Advance(100)
	f.Sync(t, e)

	evs := f.Recorder.Events()
	require.Len(t, evs, 1)
	require.Equal(t, gwnotify.KindExpired, evs[0].Kind)
	require.Equal(t, uint64(8), evs[0].SenderID)
}

func TestEngine_postFailureDoesNotStopWorker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)
	require.NoError(t, e.SetNotification(h, gwatchdog.StatusExpired, 1))

	f.Recorder.FailWith(errors.New("unavailable"))

	f.Clock.Advance(100)
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusExpired, status(t, e, h))

	require.NoError(t, e.Reset(h))
	f.Sync(t, e)
	require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
}

func TestEngine_blockingQueries(t *testing.T) {
	t.Parallel()

	type result struct {
		st  gwatchdog.Status
		err error
	}
	wait := func(ctx context.Context, q func(context.Context, gwatchdog.Handle, bool) (gwatchdog.Status, error), h gwatchdog.Handle) <-chan result {
		ch := make(chan result, 1)
		go func() {
			st, err := q(ctx, h, true)
			ch <- result{st: st, err: err}
		}()
		return ch
	}

	t.Run("released on expiry", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		f.Sync(t, e)

		a := wait(ctx, e.IsExpired, h)
		b := wait(ctx, e.IsExpired, h)
		gtest.NotSendingSoon(t, a)

		// The timer fires during Advance and wakes the worker without a Sync.
		f.Clock.Advance(100)

		for _, ch := range []<-chan result{a, b} {
			r := gtest.ReceiveSoon(t, ch)
			require.NoError(t, r.err)
			require.Equal(t, gwatchdog.StatusExpired, r.st)
		}
	})

	t.Run("active released on reset", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		f.Sync(t, e)
		f.Clock.Advance(100)
		f.Sync(t, e)

		a := wait(ctx, e.IsActive, h)
		gtest.NotSendingSoon(t, a)

		require.NoError(t, e.Reset(h))

		r := gtest.ReceiveSoon(t, a)
		require.NoError(t, r.err)
		require.Equal(t, gwatchdog.StatusNotExpired, r.st)
	})

	t.Run("released on delete", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)
		f.Sync(t, e)

		a := wait(ctx, e.IsExpired, h)
		b := wait(ctx, e.IsExpired, h)
		gtest.NotSendingSoon(t, a)

		require.NoError(t, e.Delete(h))

		for _, ch := range []<-chan result{a, b} {
			r := gtest.ReceiveSoon(t, ch)
			require.NoError(t, r.err)
			require.Equal(t, gwatchdog.StatusDeleted, r.st)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := gwatchdogtest.NewFixture(t)
		e := f.NewEngine(t, ctx)

		h, err := e.Create(1)
		require.NoError(t, err)

		qCtx, qCancel := context.WithCancelCause(ctx)
		a := wait(qCtx, e.IsExpired, h)
		gtest.NotSendingSoon(t, a)

		stop := errors.New("stop waiting")
		qCancel(stop)

		r := gtest.ReceiveSoon(t, a)
		require.ErrorIs(t, r.err, stop)
		require.Equal(t, gwatchdog.StatusNotExpired, r.st)
	})
}

func TestEngine_Snapshot_afterStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	cancel()
	e.Wait()

	_, err := e.Snapshot(context.Background())
	require.ErrorIs(t, err, gwatchdog.ErrEngineStopped)
}

func TestEngine_afterStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	other, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	type result struct {
		st  gwatchdog.Status
		err error
	}
	waiting := make(chan result, 1)
	go func() {
		// Not tied to the engine's context.
		st, err := e.IsExpired(context.Background(), h, true)
		waiting <- result{st: st, err: err}
	}()

	cancel()
	e.Wait()

	r := gtest.ReceiveSoon(t, waiting)
	require.ErrorIs(t, r.err, gwatchdog.ErrEngineStopped)
	require.Equal(t, gwatchdog.StatusNotExpired, r.st)

	t.Run("blocking query", func(t *testing.T) {
		st, err := e.IsExpired(context.Background(), h, true)
		require.ErrorIs(t, err, gwatchdog.ErrEngineStopped)
		require.Equal(t, gwatchdog.StatusNotExpired, st)
	})

	t.Run("non-blocking query", func(t *testing.T) {
		require.Equal(t, gwatchdog.StatusNotExpired, status(t, e, h))
	})

	t.Run("create", func(t *testing.T) {
		_, err := e.Create(1)
		require.ErrorIs(t, err, gwatchdog.ErrEngineStopped)
	})

	t.Run("reset", func(t *testing.T) {
		require.ErrorIs(t, e.Reset(h), gwatchdog.ErrEngineStopped)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, e.Delete(other))
		require.Equal(t, gwatchdog.StatusDeleted, status(t, e, other))
	})
}

func TestEngine_Supervise(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := gwatchdogtest.NewFixture(t)
	e := f.NewEngine(t, ctx)

	h, err := e.Create(1)
	require.NoError(t, err)
	f.Sync(t, e)

	sCtx, sCancel, err := e.Supervise(ctx, h, "consensus")
	require.NoError(t, err)
	defer sCancel()

	gtest.NotSendingSoon(t, sCtx.Done())
	require.False(t, gwatchdog.IsExpiry(sCtx))

	f.Clock.Advance(100)

	_ = gtest.ReceiveSoon(t, sCtx.Done())
	require.True(t, gwatchdog.IsExpiry(sCtx))

	var ee gwatchdog.ExpiredError
	require.ErrorAs(t, context.Cause(sCtx), &ee)
	require.Equal(t, "consensus", ee.Name)
	require.Equal(t, h, ee.Handle)

	_, _, err = e.Supervise(ctx, gwatchdog.Handle{}, "bad")
	require.ErrorIs(t, err, gwatchdog.ErrInvalidHandle)
}

func TestHandle_text(t *testing.T) {
	t.Parallel()

	h := gwatchdog.MakeHandle(3, 17)
	require.Equal(t, "3/17", h.String())

	got, err := gwatchdog.ParseHandle("3/17")
	require.NoError(t, err)
	require.Equal(t, h, got)

	for _, bad := range []string{"", "3", "x/1", "1/y", "1/2/3"} {
		_, err := gwatchdog.ParseHandle(bad)
		require.Error(t, err, bad)
	}
}
