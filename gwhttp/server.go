// Package gwhttp serves a JSON HTTP API over a [gwatchdog.Engine].
package gwhttp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gordian-engine/gpms/gwatchdog"
	"github.com/gordian-engine/gpms/gwstore"
	"github.com/gorilla/mux"
)

type HTTPServer struct {
	done chan struct{}
}

type HTTPServerConfig struct {
	Listener net.Listener

	Engine *gwatchdog.Engine

	// Optional. The event routes are only served when set.
	EventStore gwstore.EventStore
}

func NewHTTPServer(ctx context.Context, log *slog.Logger, cfg HTTPServerConfig) *HTTPServer {
	srv := &http.Server{
		Handler: NewHandler(log, cfg),

		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	h := &HTTPServer{
		done: make(chan struct{}),
	}
	go h.serve(log, cfg.Listener, srv)
	go h.waitForShutdown(ctx, srv)

	return h
}

func (h *HTTPServer) Wait() {
	<-h.done
}

func (h *HTTPServer) waitForShutdown(ctx context.Context, srv *http.Server) {
	select {
	case <-h.done:
		// h.serve returned on its own, nothing left to do here.
		return
	case <-ctx.Done():
		// Forceful shutdown.
		_ = srv.Close()
	}
}

func (h *HTTPServer) serve(log *slog.Logger, ln net.Listener, srv *http.Server) {
	defer close(h.done)

	if err := srv.Serve(ln); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
			log.Info("HTTP server shutting down")
		} else {
			log.Info("HTTP server shutting down due to error", "err", err)
		}
	}
}

// NewHandler returns the router used by [NewHTTPServer].
// cfg.Listener is ignored.
func NewHandler(log *slog.Logger, cfg HTTPServerConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/watchdogs", handleSnapshot(log, cfg)).Methods("GET")
	r.HandleFunc("/watchdogs", handleCreate(log, cfg)).Methods("POST")
	r.HandleFunc("/watchdogs/{idx:[0-9]+}/{gen:[0-9]+}", handleStatus(log, cfg)).Methods("GET")
	r.HandleFunc("/watchdogs/{idx:[0-9]+}/{gen:[0-9]+}/reset", handleReset(log, cfg)).Methods("POST")
	r.HandleFunc("/watchdogs/{idx:[0-9]+}/{gen:[0-9]+}", handleDelete(log, cfg)).Methods("DELETE")

	if cfg.EventStore != nil {
		r.HandleFunc("/events", handleEvents(log, cfg)).Methods("GET")
		r.HandleFunc("/watchdogs/{idx:[0-9]+}/{gen:[0-9]+}/events", handleWatchdogEvents(log, cfg)).Methods("GET")
	}

	return r
}
