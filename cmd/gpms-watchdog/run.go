package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gordian-engine/gpms/gwatchdog"
	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
	"github.com/gordian-engine/gpms/gwhttp"
	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/gwstore"
	"github.com/gordian-engine/gpms/gwstore/gwmemstore"
	"github.com/gordian-engine/gpms/gwstore/gwsqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagHTTPAddr      = "http-addr"
	flagHTTPAddrFile  = "http-addr-file"
	flagTick          = "tick"
	flagCapacity      = "capacity"
	flagRingSize      = "ring-size"
	flagEventsDB      = "events-db"
	flagJournalBuffer = "journal-buffer"
	flagDemoWatchdog  = "demo-watchdog"
	flagDemoInterval  = "demo-interval"
)

func newRunCmd(log *slog.Logger, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use: "run",

		Short: "Run the watchdog engine and its HTTP API until interrupted",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEngine(cmd, log, v)
		},
	}

	fs := cmd.Flags()
	fs.String(flagHTTPAddr, "127.0.0.1:9010", "TCP address for the HTTP API; empty to disable")
	fs.String(flagHTTPAddrFile, "", "If set, write the actual HTTP listen address to this file once listening")
	fs.Duration(flagTick, time.Millisecond, "Clock tick period; must evenly divide 100ms")
	fs.Int(flagCapacity, gwatchdog.DefaultCapacity, "Maximum number of live watchdogs")
	fs.Int(flagRingSize, gwatchdog.DefaultRingSize, "Number of created watchdogs that may await the worker")
	fs.String(flagEventsDB, "", "Path to a sqlite event journal (\":memory:\" for in-memory sqlite); empty for a plain in-memory journal")
	fs.Int(flagJournalBuffer, 256, "Event buffer between the engine and the journal")
	fs.StringSlice(flagDemoWatchdog, nil, "Demo watchdogs as NAME=TIMEOUT, with TIMEOUT in 100ms units")
	fs.Duration(flagDemoInterval, 0, "If positive, a monitor keeps each demo watchdog alive at this interval")

	addAssertRuleFlag(fs)

	return cmd
}

func runEngine(cmd *cobra.Command, log *slog.Logger, v *viper.Viper) error {
	ctx := cmd.Context()

	demos, err := parseDemoWatchdogs(v.GetStringSlice(flagDemoWatchdog))
	if err != nil {
		return err
	}

	clock, err := gwclock.NewTickClock(gwclock.TickClockConfig{
		Period: v.GetDuration(flagTick),
	})
	if err != nil {
		return fmt.Errorf("failed to create clock: %w", err)
	}

	assertEnv, err := getAssertEnv(v)
	if err != nil {
		return fmt.Errorf("failed to parse assertion rules: %w", err)
	}

	store, closeStore, err := openEventStore(ctx, v.GetString(flagEventsDB))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("Failed to close event store", "err", err)
		}
	}()

	hub := gwnotify.NewHub(log.With("sys", "hub"))
	defer hub.Close()

	journalEvents, unsubscribe := hub.Subscribe(v.GetInt(flagJournalBuffer))
	j := gwstore.NewJournal(ctx, log.With("sys", "journal"), store, journalEvents)
	defer j.Wait()
	defer unsubscribe()

	// runCtx also ends on early returns, stopping whatever has started.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e, err := gwatchdog.NewEngine(runCtx, log.With("sys", "engine"), gwatchdog.Config{
		Clock:     clock,
		NewTimer:  clock.TimerFactory(),
		Poster:    hub,
		Capacity:  v.GetInt(flagCapacity),
		RingSize:  v.GetInt(flagRingSize),
		AssertEnv: assertEnv,
	})
	if err != nil {
		return err
	}
	defer e.Wait()
	defer cancel()

	if err := startDemoWatchdogs(runCtx, log, e, demos, v.GetDuration(flagDemoInterval)); err != nil {
		return err
	}

	if addr := v.GetString(flagHTTPAddr); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %q: %w", addr, err)
		}

		srv := gwhttp.NewHTTPServer(runCtx, log.With("sys", "http"), gwhttp.HTTPServerConfig{
			Listener:   ln,
			Engine:     e,
			EventStore: store,
		})
		defer srv.Wait()
		defer cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "HTTP server listening on %s\n", ln.Addr())

		if f := v.GetString(flagHTTPAddrFile); f != "" {
			if err := os.WriteFile(f, []byte(ln.Addr().String()+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write HTTP address file: %w", err)
			}
		}
	}

	<-ctx.Done()
	log.Info("Shutting down", "cause", context.Cause(ctx))
	return nil
}

func openEventStore(ctx context.Context, path string) (gwstore.EventStore, func() error, error) {
	if path == "" {
		return gwmemstore.NewEventStore(), func() error { return nil }, nil
	}

	s, err := gwsqlite.NewStore(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event database %q: %w", path, err)
	}
	return s, s.Close, nil
}

type demoWatchdog struct {
	Name    string
	Timeout uint16
}

func parseDemoWatchdogs(specs []string) ([]demoWatchdog, error) {
	out := make([]demoWatchdog, 0, len(specs))
	var errs error
	for _, s := range specs {
		name, timeout, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			errs = errors.Join(errs, fmt.Errorf("demo watchdog %q must be NAME=TIMEOUT", s))
			continue
		}

		t, err := strconv.ParseUint(timeout, 10, 16)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("demo watchdog %q has invalid timeout: %w", s, err))
			continue
		}

		out = append(out, demoWatchdog{Name: name, Timeout: uint16(t)})
	}
	return out, errs
}

func startDemoWatchdogs(
	ctx context.Context,
	log *slog.Logger,
	e *gwatchdog.Engine,
	demos []demoWatchdog,
	interval time.Duration,
) error {
	for i, d := range demos {
		h, err := e.Create(d.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create demo watchdog %q: %w", d.Name, err)
		}

		sender := uint64(i + 1)
		for _, st := range []gwatchdog.Status{
			gwatchdog.StatusNotExpired, gwatchdog.StatusExpired, gwatchdog.StatusDeleted,
		} {
			if err := e.SetNotification(h, st, sender); err != nil {
				return fmt.Errorf("failed to subscribe demo watchdog %q: %w", d.Name, err)
			}
		}

		log.Info("Created demo watchdog", "name", d.Name, "wd", h, "sender", sender)

		if interval <= 0 {
			continue
		}

		jitter := interval / 10
		if jitter == 0 {
			jitter = 1
		}
		sigCh, err := e.Monitor(ctx, h, gwatchdog.MonitorConfig{
			Name:            d.Name,
			Interval:        interval,
			Jitter:          jitter,
			ResponseTimeout: interval,
		})
		if err != nil {
			return fmt.Errorf("failed to monitor demo watchdog %q: %w", d.Name, err)
		}

		go answerSignals(ctx, sigCh)
	}

	return nil
}

// answerSignals stands in for a healthy subsystem.
func answerSignals(ctx context.Context, sigCh <-chan gwatchdog.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			close(sig.Alive)
		}
	}
}
