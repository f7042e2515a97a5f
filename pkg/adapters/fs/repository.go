package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/git"
	"github.com/aretw0/journal/pkg/metrics"
)

const adapterName = "fs"

// DefaultFilename is the document name used when Config.Path is a directory.
const DefaultFilename = "reflections.json"

// Repository implements core.Repository on top of a single JSON document.
type Repository struct {
	Path    string
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	lock    *fileLock
	cache   *cache
	git     *git.Client

	// mu serializes read-modify-write cycles inside the process; the file
	// lock does the same across processes.
	mu sync.RWMutex

	stateMu       sync.Mutex
	watcherActive bool
	lastAppend    *time.Time
	corruptReads  int
	quarantined   []string
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path        string        // document path; a directory gets DefaultFilename appended
	Order       core.Order    // insertion policy, fixed per deployment
	MustExist   bool          // fail Initialize instead of creating the directory
	LockTimeout time.Duration // max wait for the cross-process lock (default 5s)
	StaleLock   time.Duration // lock files older than this are broken (default 30s, <0 disables)
	CacheTTL    time.Duration // snapshot lifetime; 0 keeps it until invalidated
	NoCache     bool
	Versioned   bool // commit the document to git after each append
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// NewRepository creates a new filesystem-backed repository.
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
	if config.LockTimeout == 0 {
		config.LockTimeout = 5 * time.Second
	}
	if config.StaleLock == 0 {
		config.StaleLock = 30 * time.Second
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
		lock:    newFileLock(path+".lock", config.LockTimeout, config.StaleLock),
		cache:   newCache(config.CacheTTL),
		git:     git.NewClient(filepath.Dir(path), logger),
	}
}

// Initialize prepares the document directory and, in versioned mode, the
// git repository around it. The document itself is created lazily.
func (r *Repository) Initialize(ctx context.Context) error {
	dir := filepath.Dir(r.Path)

	if r.config.MustExist {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("journal directory does not exist: %s", dir)
		}
		if err != nil {
			return fmt.Errorf("failed to stat journal directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("journal path is not a directory: %s", dir)
		}
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	if !r.config.Versioned {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.git.EnsureIgnore("*.lock", TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit("chore: configure journal ignore"); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

// List returns the entries of the backing document in store order.
// A missing document is an empty journal. An undecodable one is logged,
// counted and also reported as empty.
func (r *Repository) List(ctx context.Context) ([]core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, _, err := r.load(true)
	return entries, err
}

// Append persists e and returns the stored entry and the updated sequence.
//
// Workflow:
//  1. Take the in-process write lock, then the cross-process file lock.
//  2. Reload the document from disk (never from cache).
//  3. If the document is corrupt, move it aside so its bytes survive.
//  4. Assign a unique increasing ID and insert per the configured order.
//  5. Write the whole document atomically (temp file + rename).
//  6. (If versioned) commit the document.
func (r *Repository) Append(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	start := time.Now()
	res, err := r.append(ctx, e)
	r.metrics.ObserveAppend(adapterName, time.Since(start), err)
	return res, err
}

func (r *Repository) append(ctx context.Context, e core.Entry) (core.AppendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.MustExist {
		if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
			return core.AppendResult{}, &core.StorageWriteError{Op: "create directory for", Path: r.Path, Err: err}
		}
	}

	unlock, err := r.lock.Acquire(ctx)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "lock", Path: r.Path, Err: err}
	}
	defer unlock()

	entries, corrupt, err := r.load(false)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "read", Path: r.Path, Err: err}
	}
	if corrupt != nil {
		if err := r.quarantine(); err != nil {
			return core.AppendResult{}, &core.StorageWriteError{Op: "quarantine", Path: r.Path, Err: err}
		}
	}

	e.ID = core.NextID(core.MaxID(entries), e.ID)
	updated := r.config.Order.Insert(entries, e)

	data, err := encodeDocument(updated)
	if err != nil {
		return core.AppendResult{}, &core.StorageWriteError{Op: "encode", Path: r.Path, Err: err}
	}

	if err := writeFileAtomic(r.Path, data, 0644); err != nil {
		r.cache.Invalidate()
		return core.AppendResult{}, &core.StorageWriteError{Op: "write", Path: r.Path, Err: err}
	}

	if info, err := os.Stat(r.Path); err == nil && !r.config.NoCache {
		r.cache.Put(info, updated)
	} else {
		r.cache.Invalidate()
	}

	if r.config.Versioned {
		r.commit(e)
	}

	r.metrics.SetEntries(adapterName, len(updated))
	r.recordAppend()
	r.logger.Debug("appended reflection", "path", r.Path, "id", e.ID, "entries", len(updated))

	return core.AppendResult{Entry: e, Entries: core.CloneEntries(updated)}, nil
}

// load reads and decodes the document. Corruption is reported through the
// second return value, never as an error.
func (r *Repository) load(useCache bool) ([]core.Entry, *core.CorruptStoreError, error) {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		r.cache.Invalidate()
		return []core.Entry{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", r.Path, err)
	}

	if useCache && !r.config.NoCache {
		if entries, ok := r.cache.Get(info); ok {
			return entries, nil, nil
		}
	}

	data, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return []core.Entry{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", r.Path, err)
	}

	entries, err := decodeDocument(data)
	if err != nil {
		corrupt := &core.CorruptStoreError{Path: r.Path, Err: err}
		r.reportCorrupt(corrupt)
		return []core.Entry{}, corrupt, nil
	}

	if !r.config.NoCache {
		r.cache.Put(info, entries)
	}
	return entries, nil, nil
}

func (r *Repository) reportCorrupt(err *core.CorruptStoreError) {
	r.cache.Invalidate()
	r.metrics.CorruptRead(adapterName)
	r.stateMu.Lock()
	r.corruptReads++
	r.stateMu.Unlock()
	r.logger.Warn("reflection store is corrupt, treating as empty; it will be moved aside on next append",
		"path", err.Path, "error", err.Err)
}

// quarantine renames the corrupt document aside so the next write does not
// destroy bytes that may still be recoverable by hand.
func (r *Repository) quarantine() error {
	dest := fmt.Sprintf("%s.corrupt-%d", r.Path, time.Now().UnixMilli())
	if err := os.Rename(r.Path, dest); err != nil {
		return err
	}

	r.metrics.Quarantine()
	r.stateMu.Lock()
	r.quarantined = append(r.quarantined, dest)
	r.stateMu.Unlock()
	r.logger.Warn("moved corrupt reflection store aside", "path", r.Path, "moved_to", dest)
	return nil
}

// commit records the document in git. The document is already durable at
// this point, so a failed commit is logged rather than failing the append.
func (r *Repository) commit(e core.Entry) {
	name := filepath.Base(r.Path)
	if err := r.git.Add(name); err != nil {
		r.logger.Warn("failed to git add journal", "error", err)
		return
	}
	if err := r.git.Commit(fmt.Sprintf("journal: add reflection %d", e.ID)); err != nil {
		r.logger.Warn("failed to git commit journal", "error", err)
	}
}
