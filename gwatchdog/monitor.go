package gwatchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/gordian-engine/gpms/internal/glog"
)

// Signal is sent to a monitored subsystem.
// The subsystem proves it is alive by closing the Alive channel.
type Signal struct {
	Alive chan<- struct{}
}

type MonitorConfig struct {
	// The name of the subsystem being monitored, for reporting purposes.
	Name string

	// The subsystem is polled every Interval + [-Jitter, +Jitter) duration.
	// The jitter range is uniformly distributed.
	Interval, Jitter time.Duration

	// If the subsystem does not both accept the signal
	// and close its Alive channel within ResponseTimeout,
	// the watchdog is not reset for that poll.
	ResponseTimeout time.Duration
}

func (c MonitorConfig) validate() error {
	var err error
	if c.Name == "" {
		err = errors.Join(err, errors.New("MonitorConfig.Name must not be empty"))
	}

	if c.Interval <= 0 {
		err = errors.Join(err, errors.New("MonitorConfig.Interval must be positive"))
	}

	if c.Jitter <= 0 {
		err = errors.Join(err, errors.New("MonitorConfig.Jitter must be positive"))
	}

	if c.Jitter > c.Interval {
		err = errors.Join(err, errors.New("MonitorConfig.Jitter must be less than MonitorConfig.Interval"))
	}

	if c.ResponseTimeout <= 0 {
		err = errors.Join(err, errors.New("MonitorConfig.ResponseTimeout must be positive"))
	}

	return err
}

// Monitor polls a subsystem on the returned channel and resets h
// each time the subsystem answers.
// A subsystem that stops answering lets h expire.
//
// Polling stops when ctx or the engine's context ends,
// or when h is deleted.
func (e *Engine) Monitor(ctx context.Context, h Handle, cfg MonitorConfig) (<-chan Signal, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid MonitorConfig: %w", err)
	}
	if _, err := e.lookup(h); err != nil {
		return nil, err
	}

	mCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.rootCtx, cancel)

	// Unbuffered so that a successful send means the subsystem took the signal.
	sigCh := make(chan Signal)

	e.wg.Add(1)
	go func() {
		defer stop()
		defer cancel()
		e.monitor(mCtx, glog.WD(e.log.With("sys", "monitor", "subsys", cfg.Name), h), h, cfg, sigCh)
	}()

	return sigCh, nil
}

// monitor runs in its own goroutine to poll a subsystem on an interval
// specified by cfg.
func (e *Engine) monitor(
	ctx context.Context,
	log *slog.Logger,
	h Handle,
	cfg MonitorConfig,
	sigCh chan<- Signal,
) {
	defer e.wg.Done()

	// Every monitor instance gets its own RNG, seeded by the global RNG,
	// to avoid contending on a mutex.
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	for {
		j := rng.Int64N(int64(2*cfg.Jitter)) - int64(cfg.Jitter)

		timer := time.NewTimer(cfg.Interval + time.Duration(j))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			alive, ok := checkSubsys(ctx, cfg.ResponseTimeout, sigCh)
			if !ok {
				return
			}
			if !alive {
				log.Warn("Subsystem failed to respond within timeout", "timeout", cfg.ResponseTimeout)
				continue
			}

			if err := e.Reset(h); err != nil {
				if errors.Is(err, ErrDeleted) || errors.Is(err, ErrInvalidHandle) {
					log.Info("Stopping monitor for removed watchdog", "err", err)
					return
				}
				if errors.Is(err, ErrEngineStopped) {
					return
				}
				panic(fmt.Errorf("BUG: unexpected error resetting monitored watchdog: %w", err))
			}
		}
	}
}

// checkSubsys sends one signal and waits for the subsystem to answer.
// ok is false only when ctx ended.
func checkSubsys(
	ctx context.Context,
	responseTimeout time.Duration,
	sigCh chan<- Signal,
) (alive, ok bool) {
	ch := make(chan struct{})
	sig := Signal{
		Alive: ch,
	}
	timer := time.NewTimer(responseTimeout)
	defer timer.Stop()

	// First the signal needs to be received within the timeout.
	select {
	case <-ctx.Done():
		return false, false
	case sigCh <- sig:
		// Okay, keep going.
	case <-timer.C:
		return false, true
	}

	select {
	case <-ctx.Done():
		return false, false
	case <-ch:
		return true, true
	case <-timer.C:
		// One final fast check,
		// as the subsystem may have answered before the timer elapsed
		// but the runtime chose the timer path from the available cases at random.
		select {
		case <-ch:
			return true, true
		default:
			return false, true
		}
	}
}
