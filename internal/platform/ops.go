package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/journal/pkg/adapters/fs"
	"github.com/aretw0/journal/pkg/adapters/sqlite"
	"github.com/aretw0/journal/pkg/core"
)

// Init builds and initializes the store selected by the options.
// The 'uri' argument is adapter-specific: a document path for 'fs', a
// database path for 'sqlite'.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(context.Background(), uri, o)
}

func initRepository(ctx context.Context, uri string, o *options) (core.Repository, error) {
	// 1. Check for injected repository
	if o.repository != nil {
		return o.repository, nil
	}

	// 2. Build based on adapter
	var repo core.Repository
	switch adapter := resolveAdapter(uri, o.adapter); adapter {
	case "fs":
		repo = initFS(uri, o)
	case "sqlite":
		repo = initSQLite(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", adapter)
	}

	// 3. Run initialization
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("journal store ready", "adapter", componentType(repo), "uri", uri)
	}
	return repo, nil
}

func resolveAdapter(uri, adapter string) string {
	if adapter != "" {
		return strings.ToLower(adapter)
	}
	switch strings.ToLower(filepath.Ext(uri)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "fs"
	}
}

func initFS(path string, o *options) core.Repository {
	return fs.NewRepository(fs.Config{
		Path:        ResolvePath(path, fs.DefaultFilename),
		Order:       o.order,
		MustExist:   o.mustExist,
		LockTimeout: o.lockTimeout,
		StaleLock:   o.staleLock,
		CacheTTL:    o.cacheTTL,
		NoCache:     o.noCache,
		Versioned:   o.versioned,
		Logger:      o.logger,
		Metrics:     o.metrics,
	})
}

func initSQLite(path string, o *options) core.Repository {
	if o.versioned && o.logger != nil {
		o.logger.Warn("versioning is only supported by the fs adapter; ignoring")
	}
	return sqlite.NewRepository(sqlite.Config{
		Path:    ResolvePath(path, sqlite.DefaultFilename),
		Order:   o.order,
		Logger:  o.logger,
		Metrics: o.metrics,
	})
}

func componentType(repo core.Repository) string {
	if c, ok := repo.(interface{ ComponentType() string }); ok {
		return c.ComponentType()
	}
	return fmt.Sprintf("%T", repo)
}
