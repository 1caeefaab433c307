// Package glog has small slog helpers shared by the watchdog packages.
package glog

import "log/slog"

// WD returns a copy of log that includes the watchdog identity under "wd".
//
// The value is usually a gwatchdog.Handle, which renders itself as idx/gen.
func WD(log *slog.Logger, wd slog.LogValuer) *slog.Logger {
	return log.With("wd", wd)
}

// WDE is like [WD] but also attaches e under "err".
func WDE(log *slog.Logger, wd slog.LogValuer, e error) *slog.Logger {
	return log.With("wd", wd, "err", e)
}
