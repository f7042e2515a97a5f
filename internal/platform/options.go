package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

// options holds the internal configuration for the journal service.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	metrics     *metrics.Metrics
	adapter     string
	order       core.Order
	policy      *core.Policy
	versioned   bool
	mustExist   bool
	noCache     bool
	lockTimeout time.Duration
	staleLock   time.Duration
	cacheTTL    time.Duration
}

// Option defines a functional option for configuring the journal.
type Option func(*options)

// defaultOptions returns the default configuration.
// An empty adapter is resolved from the URI by Init.
func defaultOptions() *options {
	return &options{
		adapter: "",
		order:   core.OldestFirst,
	}
}

// WithLogger sets the logger for the service and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. a mock).
// If provided, adapter selection is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
// When unset, URIs ending in .db or .sqlite select "sqlite" and everything
// else selects "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithOrder sets where new entries are inserted.
func WithOrder(order core.Order) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithPolicy sets the validation policy used by the service.
func WithPolicy(p core.Policy) Option {
	return func(o *options) {
		o.policy = &p
	}
}

// WithMetrics records store and service activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithVersioning commits the document to git after each append (fs only).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioned = enabled
	}
}

// WithMustExist fails initialization if the journal directory is missing.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLockTimeout bounds the wait for the cross-process write lock (fs only).
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithStaleLock sets the age after which an abandoned lock file is broken (fs only).
func WithStaleLock(d time.Duration) Option {
	return func(o *options) {
		o.staleLock = d
	}
}

// WithCacheTTL sets the lifetime of the read snapshot (fs only).
// Zero keeps the snapshot until the document changes.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = d
	}
}

// WithoutCache disables the read snapshot (fs only).
func WithoutCache() Option {
	return func(o *options) {
		o.noCache = true
	}
}
