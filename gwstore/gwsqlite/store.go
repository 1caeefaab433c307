// Package gwsqlite is a sqlite-backed [gwstore.EventStore].
//
// Builds with cgo use github.com/mattn/go-sqlite3;
// builds with the purego tag or without cgo use modernc.org/sqlite.
package gwsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/trace"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gordian-engine/gpms/gwnotify"
	"github.com/gordian-engine/gpms/gwstore"
)

// Store is an event store in a sqlite database.
type Store struct {
	// The string "purego" or "cgo" depending on build tags.
	BuildType string

	// Separate pools for reads and for the single writer,
	// so readers never contend with sqlite's write lock through the Go driver.
	ro, rw *sql.DB
}

// NewStore opens the database at dbPath, creating it if necessary.
// The path ":memory:" gives a private in-memory database.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return NewInMemStore(ctx)
	}
	return NewOnDiskStore(ctx, dbPath)
}

func NewOnDiskStore(ctx context.Context, dbPath string) (*Store, error) {
	dbPath = filepath.Clean(dbPath)
	if _, err := os.Stat(dbPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat path %q: %w", dbPath, err)
		}

		// The startup pragmas fail without an existing file.
		// O_EXCL so that an existing file is never truncated.
		f, err := os.OpenFile(dbPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to create empty database file: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to close new empty database file: %w", err)
		}
	}

	// With SetMaxOpenConns(1), writers queue on the single connection
	// instead of failing with "database is locked".
	uri := "file:" + dbPath + "?mode=rw"

	rw, err := sql.Open(sqliteDriverType, uri)
	if err != nil {
		return nil, fmt.Errorf("error opening read-write database: %w", err)
	}
	rw.SetMaxOpenConns(1)

	// Persistent, and only relevant to on-disk databases.
	if _, err := rw.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		return nil, closeOnError(rw, fmt.Errorf("failed to set journal_mode=WAL: %w", err))
	}

	if err := pragmasRW(ctx, rw); err != nil {
		return nil, closeOnError(rw, err)
	}

	if err := migrate(ctx, rw); err != nil {
		return nil, closeOnError(rw, err)
	}

	// Change mode=rw to mode=ro, which was the final query parameter.
	uri = uri[:len(uri)-1] + "o"
	ro, err := sql.Open(sqliteDriverType, uri)
	if err != nil {
		return nil, closeOnError(rw, fmt.Errorf("error opening read-only database: %w", err))
	}

	return &Store{
		BuildType: sqliteBuildType,

		rw: rw,
		ro: ro,
	}, nil
}

var inMemNameCounter uint32

func NewInMemStore(ctx context.Context) (*Store, error) {
	dbName := fmt.Sprintf("gwevents%d", atomic.AddUint32(&inMemNameCounter, 1))
	uri := "file:" + dbName +
		// A unique name so that both pools in this process share one in-memory database.
		"?mode=memory" +
		// A private cache would give every connection its own database.
		"&cache=shared" +
		// Supported by both drivers; takes the write lock at the start of each transaction.
		"&_txlock=immediate"

	rw, err := sql.Open(sqliteDriverType, uri)
	if err != nil {
		return nil, fmt.Errorf("error opening read-write database: %w", err)
	}

	// More than one writer gives "table is locked" errors
	// that the busy timeout does not resolve.
	rw.SetMaxOpenConns(1)

	if err := pragmasRW(ctx, rw); err != nil {
		return nil, closeOnError(rw, err)
	}

	if err := migrate(ctx, rw); err != nil {
		return nil, closeOnError(rw, err)
	}

	// Same URI without the txlock directive;
	// the drivers cannot open an in-memory database read-only.
	var ok bool
	uri, ok = strings.CutSuffix(uri, "&_txlock=immediate")
	if !ok {
		panic(fmt.Errorf("BUG: failed to cut _txlock suffix from uri %q", uri))
	}
	ro, err := sql.Open(sqliteDriverType, uri)
	if err != nil {
		return nil, closeOnError(rw, fmt.Errorf("error opening read-only database: %w", err))
	}

	return &Store{
		BuildType: sqliteBuildType,

		rw: rw,
		ro: ro,
	}, nil
}

// closeOnError closes db after a failed setup step, keeping cause as the primary error.
func closeOnError(db *sql.DB, cause error) error {
	if err := db.Close(); err != nil {
		return errors.Join(cause, fmt.Errorf("error closing read-write database: %w", err))
	}
	return cause
}

func (s *Store) Close() error {
	errRO := s.ro.Close()
	if errRO != nil {
		errRO = fmt.Errorf("error closing read-only database: %w", errRO)
	}
	errRW := s.rw.Close()
	if errRW != nil {
		errRW = fmt.Errorf("error closing read-write database: %w", errRW)
	}

	return errors.Join(errRO, errRW)
}

func (s *Store) SaveEvent(ctx context.Context, e gwnotify.Event, recordedAt time.Time) (uint64, error) {
	defer trace.StartRegion(ctx, "SaveEvent").End()

	if err := gwstore.ValidateEvent(e); err != nil {
		return 0, err
	}

	res, err := s.rw.ExecContext(
		ctx,
		`INSERT INTO events(kind, sender_id, wd_index, wd_generation, tick, recorded_at_ms)
VALUES (?, ?, ?, ?, ?, ?)`,
		int64(e.Kind), int64(e.SenderID), int64(e.Index), int64(e.Generation), int64(e.Tick),
		recordedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event sequence: %w", err)
	}
	return uint64(seq), nil
}

func (s *Store) LoadEvents(ctx context.Context, afterSeq uint64, limit int) ([]gwstore.Record, error) {
	defer trace.StartRegion(ctx, "LoadEvents").End()

	if limit <= 0 {
		return nil, gwstore.InvalidLimitError{Limit: limit}
	}

	rows, err := s.ro.QueryContext(
		ctx,
		`SELECT seq, kind, sender_id, wd_index, wd_generation, tick, recorded_at_ms
FROM events WHERE seq > ? ORDER BY seq ASC LIMIT ?`,
		int64(afterSeq), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return scanRecords(rows)
}

func (s *Store) LoadEventsByWatchdog(ctx context.Context, index, generation uint32) ([]gwstore.Record, error) {
	defer trace.StartRegion(ctx, "LoadEventsByWatchdog").End()

	rows, err := s.ro.QueryContext(
		ctx,
		`SELECT seq, kind, sender_id, wd_index, wd_generation, tick, recorded_at_ms
FROM events WHERE wd_index = ? AND wd_generation = ? ORDER BY seq ASC`,
		int64(index), int64(generation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by watchdog: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]gwstore.Record, error) {
	defer rows.Close()

	var out []gwstore.Record
	for rows.Next() {
		var seq, kind, sender, idx, gen, tick, ms int64
		if err := rows.Scan(&seq, &kind, &sender, &idx, &gen, &tick, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, gwstore.Record{
			Seq: uint64(seq),
			Event: gwnotify.Event{
				Kind:       gwnotify.Kind(kind),
				SenderID:   uint64(sender),
				Index:      uint32(idx),
				Generation: uint32(gen),
				Tick:       uint32(tick),
			},
			RecordedAt: time.UnixMilli(ms),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return out, nil
}

func pragmasRW(ctx context.Context, db *sql.DB) error {
	defer trace.StartRegion(ctx, "pragmasRW").End()

	// https://www.sqlite.org/lang_analyze.html#periodically_run_pragma_optimize_
	if _, err := db.ExecContext(ctx, `PRAGMA optimize(0x10002);`); err != nil {
		return fmt.Errorf("failed to run startup PRAGMA optimize: %w", err)
	}

	return nil
}

// BuildType reports "cgo" or "purego" depending on which sqlite driver was compiled in.
func BuildType() string {
	return sqliteBuildType
}
