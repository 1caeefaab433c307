package gwatchdog

import "context"

// Supervise returns a context derived from ctx
// that is cancelled with an [ExpiredError] cause once h expires.
// Deleting h leaves the returned context to be cancelled by the caller.
//
// Use [IsExpiry] to distinguish an expiry from other cancellation.
func (e *Engine) Supervise(ctx context.Context, h Handle, name string) (context.Context, context.CancelFunc, error) {
	if _, err := e.lookup(h); err != nil {
		return nil, nil, err
	}

	sCtx, cancel := context.WithCancelCause(ctx)

	// The waiter also gives up when the engine stops.
	wCtx, wCancel := context.WithCancel(sCtx)
	stop := context.AfterFunc(e.rootCtx, wCancel)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer stop()
		defer wCancel()

		st, err := e.IsExpired(wCtx, h, true)
		if err != nil {
			return
		}
		if st == StatusExpired {
			e.log.Info("Supervised watchdog expired", "name", name, "wd", h)
			cancel(ExpiredError{Name: name, Handle: h})
		}
	}()

	return sCtx, func() { cancel(nil) }, nil
}
