package gwhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gordian-engine/gpms/gwatchdog"
	"github.com/gordian-engine/gpms/gwstore"
	"github.com/gorilla/mux"
)

// CreateRequest is the body of POST /watchdogs.
type CreateRequest struct {
	// In 100ms units.
	Timeout uint16

	SenderID uint64

	// Any of "NotExpired", "Expired" and "Deleted".
	Notify []string
}

type CreateResponse struct {
	Handle gwatchdog.Handle
}

type StatusResponse struct {
	Handle gwatchdog.Handle
	Status gwatchdog.Status
}

const defaultEventLimit = 100

func handleSnapshot(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	e := cfg.Engine
	return func(w http.ResponseWriter, req *http.Request) {
		s, err := e.Snapshot(req.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to take snapshot: %v", err), http.StatusServiceUnavailable)
			return
		}

		writeJSON(log, w, http.StatusOK, s)
	}
}

func handleCreate(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	e := cfg.Engine
	return func(w http.ResponseWriter, req *http.Request) {
		var cr CreateRequest
		if err := json.NewDecoder(req.Body).Decode(&cr); err != nil {
			http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
			return
		}

		notify := make([]gwatchdog.Status, 0, len(cr.Notify))
		for _, n := range cr.Notify {
			st, ok := parseStatus(n)
			if !ok {
				http.Error(w, fmt.Sprintf("unknown notification status %q", n), http.StatusBadRequest)
				return
			}
			notify = append(notify, st)
		}

		h, err := e.Create(cr.Timeout)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		for _, st := range notify {
			if err := e.SetNotification(h, st, cr.SenderID); err != nil {
				// Only possible if something else deleted the new watchdog.
				writeEngineError(w, err)
				return
			}
		}

		writeJSON(log, w, http.StatusCreated, CreateResponse{Handle: h})
	}
}

func handleStatus(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	e := cfg.Engine
	return func(w http.ResponseWriter, req *http.Request) {
		h, ok := handleFromVars(w, req)
		if !ok {
			return
		}

		// Blocking waits are available with ?wait=expired or ?wait=active,
		// bounded by the request context.
		blocking := true
		query := e.IsExpired
		switch req.URL.Query().Get("wait") {
		case "":
			blocking = false
		case "expired":
		case "active":
			query = e.IsActive
		default:
			http.Error(w, "wait must be expired or active", http.StatusBadRequest)
			return
		}

		st, err := query(req.Context(), h, blocking)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(log, w, http.StatusOK, StatusResponse{Handle: h, Status: st})
	}
}

func handleReset(_ *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	e := cfg.Engine
	return func(w http.ResponseWriter, req *http.Request) {
		h, ok := handleFromVars(w, req)
		if !ok {
			return
		}

		if err := e.Reset(h); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDelete(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	e := cfg.Engine
	return func(w http.ResponseWriter, req *http.Request) {
		h, ok := handleFromVars(w, req)
		if !ok {
			return
		}

		if err := e.Delete(h); err != nil {
			var ne gwatchdog.NotificationError
			if !errors.As(err, &ne) {
				writeEngineError(w, err)
				return
			}

			// The watchdog is deleted regardless.
			log.Warn("Deleted watchdog but failed to post notification", "wd", h, "err", err)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleEvents(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	s := cfg.EventStore
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		var after uint64
		if a := q.Get("after"); a != "" {
			var err error
			after, err = strconv.ParseUint(a, 10, 64)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid after value: %v", err), http.StatusBadRequest)
				return
			}
		}

		limit := defaultEventLimit
		if l := q.Get("limit"); l != "" {
			var err error
			limit, err = strconv.Atoi(l)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid limit value: %v", err), http.StatusBadRequest)
				return
			}
		}

		recs, err := s.LoadEvents(req.Context(), after, limit)
		if err != nil {
			if errors.As(err, new(gwstore.InvalidLimitError)) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, fmt.Sprintf("failed to load events: %v", err), http.StatusInternalServerError)
			return
		}

		writeJSON(log, w, http.StatusOK, nonNil(recs))
	}
}

func handleWatchdogEvents(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	s := cfg.EventStore
	return func(w http.ResponseWriter, req *http.Request) {
		h, ok := handleFromVars(w, req)
		if !ok {
			return
		}

		recs, err := s.LoadEventsByWatchdog(req.Context(), h.Index(), h.Generation())
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to load events: %v", err), http.StatusInternalServerError)
			return
		}

		writeJSON(log, w, http.StatusOK, nonNil(recs))
	}
}

func handleFromVars(w http.ResponseWriter, req *http.Request) (gwatchdog.Handle, bool) {
	vars := mux.Vars(req)

	idx, err := strconv.ParseUint(vars["idx"], 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid index: %v", err), http.StatusBadRequest)
		return gwatchdog.Handle{}, false
	}
	gen, err := strconv.ParseUint(vars["gen"], 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid generation: %v", err), http.StatusBadRequest)
		return gwatchdog.Handle{}, false
	}

	return gwatchdog.MakeHandle(uint32(idx), uint32(gen)), true
}

func parseStatus(s string) (gwatchdog.Status, bool) {
	for _, st := range []gwatchdog.Status{
		gwatchdog.StatusNotExpired, gwatchdog.StatusExpired, gwatchdog.StatusDeleted,
	} {
		if st.String() == s {
			return st, true
		}
	}
	return gwatchdog.StatusInvalid, false
}

func writeEngineError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, gwatchdog.ErrInvalidHandle):
		code = http.StatusNotFound
	case errors.Is(err, gwatchdog.ErrDeleted):
		code = http.StatusGone
	case errors.Is(err, gwatchdog.ErrInvalidTimeout), errors.Is(err, gwatchdog.ErrInvalidStatus):
		code = http.StatusBadRequest
	case errors.Is(err, gwatchdog.ErrNoCapacity), errors.Is(err, gwatchdog.ErrRingFull),
		errors.Is(err, gwatchdog.ErrEngineStopped):
		code = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to encode response", "err", err)
	}
}

// nonNil makes an empty result encode as [] rather than null.
func nonNil(recs []gwstore.Record) []gwstore.Record {
	if recs == nil {
		return []gwstore.Record{}
	}
	return recs
}
