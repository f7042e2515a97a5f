// Package sqlite stores reflections in a single-table SQLite database.
// It is an alternative to the JSON document store for deployments that
// prefer a database file; both satisfy core.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

const adapterName = "sqlite"

// DefaultFilename is the database name used when Config.Path is a directory.
const DefaultFilename = "reflections.db"

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path        string
	Order       core.Order
	BusyTimeout time.Duration // how long SQLite waits on a locked database (default 5s)
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Repository implements core.Repository on top of SQLite.
type Repository struct {
	Path    string
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu  sync.Mutex
	db  *sql.DB
	gen int // bumped each time the database file is replaced

	stateMu      sync.Mutex
	appends      int
	lastAppend   *time.Time
	corruptReads int
	quarantined  []string
}

// NewRepository creates a new repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	path := config.Path
	if path == "" {
		path = DefaultFilename
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFilename)
	}
	config.Path = path

	if config.Order == "" {
		config.Order = core.OldestFirst
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Repository{
		Path:    path,
		config:  config,
		logger:  logger,
		metrics: config.Metrics,
	}
}

const schema = `
	CREATE TABLE IF NOT EXISTS reflections (
		seq    INTEGER PRIMARY KEY AUTOINCREMENT,
		id     INTEGER NOT NULL UNIQUE,
		date   TEXT    NOT NULL,
		title  TEXT    NOT NULL DEFAULT '',
		text   TEXT    NOT NULL,
		source TEXT    NOT NULL DEFAULT '',
		name   TEXT    NOT NULL DEFAULT ''
	);
`

// Initialize opens the database and creates the schema. A file that is not
// a SQLite database is reported as corrupt and left for the next append to
// move aside.
func (r *Repository) Initialize(ctx context.Context) error {
	_, err := r.handle(ctx)
	if corrupt := r.asCorrupt(err); corrupt != nil {
		r.reportCorrupt(corrupt)
		return nil
	}
	return err
}

// Close releases the database handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// handle returns the open database, opening it on first use.
func (r *Repository) handle(ctx context.Context) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		if err := r.open(ctx); err != nil {
			return nil, err
		}
	}
	return r.db, nil
}

// open must be called with r.mu held.
func (r *Repository) open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", r.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers inside the process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", r.config.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	r.db = db
	return nil
}

// isCorrupt reports whether err comes from SQLite refusing the file itself.
func isCorrupt(err error) bool {
	var serr *moderncsqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

func (r *Repository) asCorrupt(err error) *core.CorruptStoreError {
	if err == nil {
		return nil
	}
	var corrupt *core.CorruptStoreError
	if errors.As(err, &corrupt) {
		return corrupt
	}
	if isCorrupt(err) {
		return &core.CorruptStoreError{Path: r.Path, Err: err}
	}
	return nil
}

func (r *Repository) reportCorrupt(err *core.CorruptStoreError) {
	r.metrics.CorruptRead(adapterName)
	r.stateMu.Lock()
	r.corruptReads++
	r.stateMu.Unlock()
	r.logger.Warn("reflection database is corrupt, treating as empty; it will be moved aside on next append",
		"path", err.Path, "error", err.Err)
}

// quarantine moves the corrupt database (and its WAL sidecars) aside so a
// fresh one can be created. It does nothing if another caller already
// replaced the database since generation gen was observed.
func (r *Repository) quarantine(gen int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return nil
	}
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}

	dest := fmt.Sprintf("%s.corrupt-%d", r.Path, time.Now().UnixMilli())
	if err := os.Rename(r.Path, dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(r.Path+suffix, dest+suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	r.gen++

	r.metrics.Quarantine()
	r.stateMu.Lock()
	r.quarantined = append(r.quarantined, dest)
	r.stateMu.Unlock()
	r.logger.Warn("moved corrupt reflection database aside", "path", r.Path, "moved_to", dest)
	return nil
}

func (r *Repository) orderClause() string {
	if r.config.Order == core.NewestFirst {
		return "ORDER BY seq DESC"
	}
	return "ORDER BY seq ASC"
}

// List returns all entries in store order. A corrupt database reads as
// empty.
func (r *Repository) List(ctx context.Context) ([]core.Entry, error) {
	entries, err := r.list(ctx)
	if corrupt := r.asCorrupt(err); corrupt != nil {
		r.reportCorrupt(corrupt)
		return []core.Entry{}, nil
	}
	return entries, err
}

func (r *Repository) list(ctx context.Context) ([]core.Entry, error) {
	db, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	return listEntries(ctx, db, r.orderClause())
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEntries(ctx context.Context, q querier, order string) ([]core.Entry, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, date, title, text, source, name FROM reflections "+order)
	if err != nil {
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		var e core.Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Title, &e.Text, &e.Source, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan reflection: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reflections: %w", err)
	}
	return entries, nil
}

// Append inserts e in a single transaction and returns the updated sequence.
func (r *Repository) Append(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	start := time.Now()
	res, err := r.append(ctx, e)
	r.metrics.ObserveAppend(adapterName, time.Since(start), err)
	return res, err
}

// append writes e. A corrupt database is moved aside and the write retried
// once on a fresh one.
func (r *Repository) append(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	res, err := r.insert(ctx, e)
	if corrupt := r.asCorrupt(err); corrupt != nil {
		r.reportCorrupt(corrupt)
		if qerr := r.quarantine(gen); qerr != nil {
			return core.AppendResult{}, &core.StorageWriteError{Op: "quarantine", Path: r.Path, Err: qerr}
		}
		res, err = r.insert(ctx, e)
	}
	if err != nil {
		return core.AppendResult{}, err
	}

	r.metrics.SetEntries(adapterName, len(res.Entries))
	r.recordAppend()
	r.logger.Debug("appended reflection", "path", r.Path, "id", res.Entry.ID, "entries", len(res.Entries))
	return res, nil
}

func (r *Repository) insert(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	db, err := r.handle(ctx)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "open", Path: r.Path, Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "begin", Path: r.Path, Err: err}
	}
	defer tx.Rollback()

	var maxID sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(id) FROM reflections").Scan(&maxID); err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "read", Path: r.Path, Err: err}
	}
	e.ID = core.NextID(maxID.Int64, e.ID)

	_, err = tx.ExecContext(ctx,
		"INSERT INTO reflections (id, date, title, text, source, name) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Date, e.Title, e.Text, e.Source, e.Name)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "insert into", Path: r.Path, Err: err}
	}

	entries, err := listEntries(ctx, tx, r.orderClause())
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "read", Path: r.Path, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "commit", Path: r.Path, Err: err}
	}
	return core.AppendResult{Entry: e, Entries: entries}, nil
}

func (r *Repository) recordAppend() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	now := time.Now()
	r.appends++
	r.lastAppend = &now
}
