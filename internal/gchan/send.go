// Package gchan holds small channel helpers that log consistently
// when a context ends before the channel operation completes.
package gchan

import (
	"context"
	"log/slog"
)

// SendC sends val to out unless ctx finishes first.
// On cancellation it logs "Context canceled while "+during and reports false.
func SendC[T any](ctx context.Context, log *slog.Logger, out chan<- T, val T, during string) (sent bool) {
	select {
	case <-ctx.Done():
		log.Info("Context canceled while "+during, "cause", context.Cause(ctx))
		return false
	case out <- val:
		return true
	}
}

// RecvC receives from in unless ctx finishes first.
// On cancellation it logs "Context canceled while "+during
// and returns the zero value with received=false.
func RecvC[T any](ctx context.Context, log *slog.Logger, in <-chan T, during string) (val T, received bool) {
	select {
	case <-ctx.Done():
		log.Info("Context canceled while "+during, "cause", context.Cause(ctx))
		return val, false
	case val := <-in:
		return val, true
	}
}

// TrySend performs a non-blocking send of val to out,
// reporting whether the value was accepted.
func TrySend[T any](out chan<- T, val T) bool {
	select {
	case out <- val:
		return true
	default:
		return false
	}
}

// ReqResp sends req to reqCh and then waits for a value on respCh.
// Either step is abandoned if ctx finishes, and ok is false.
func ReqResp[T, U any](
	ctx context.Context, log *slog.Logger,
	reqCh chan<- T, req T,
	respCh <-chan U,
	what string,
) (resp U, ok bool) {
	if !SendC(ctx, log, reqCh, req, "making "+what+" request") {
		return resp, false
	}

	return RecvC(ctx, log, respCh, "receiving "+what+" response")
}
