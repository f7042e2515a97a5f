package journal

import (
	"log/slog"
	"time"

	"github.com/aretw0/journal/internal/platform"
	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

// --- Types ---

// Entry is a public alias for the reflection record.
type Entry = core.Entry

// Input is a public alias for raw submission data.
type Input = core.Input

// --- Configuration ---

// Option defines a functional option for configuring the journal.
type Option = platform.Option

// WithLogger sets the logger for the service and its store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithOrder sets where new entries are inserted.
func WithOrder(order core.Order) Option {
	return platform.WithOrder(order)
}

// WithPolicy sets the validation policy.
func WithPolicy(p core.Policy) Option {
	return platform.WithPolicy(p)
}

// WithMetrics records store and service activity.
func WithMetrics(m *metrics.Metrics) Option {
	return platform.WithMetrics(m)
}

// WithVersioning commits the document to git after each append.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist ensures the journal directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLockTimeout bounds the wait for the cross-process write lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithStaleLock sets the age after which an abandoned lock file is broken.
func WithStaleLock(d time.Duration) Option {
	return platform.WithStaleLock(d)
}

// WithCacheTTL sets the lifetime of the read snapshot.
func WithCacheTTL(d time.Duration) Option {
	return platform.WithCacheTTL(d)
}

// WithoutCache disables the read snapshot.
func WithoutCache() Option {
	return platform.WithoutCache()
}

// --- Factory ---

// New creates a journal service backed by the store at uri.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init initializes a repository explicitly.
func Init(uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(uri, opts...)
}

// --- Utils ---

// FindDocument looks upwards from startDir for a reflections document.
func FindDocument(startDir string) (string, error) {
	return platform.FindDocument(startDir, "reflections.json")
}
