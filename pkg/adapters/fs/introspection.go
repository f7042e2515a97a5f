package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	Order         string     `json:"order"`
	CacheSize     int        `json:"cache_size"`
	Versioned     bool       `json:"versioned"`
	WatcherActive bool       `json:"watcher_active"`
	CorruptReads  int        `json:"corrupt_reads"`
	Quarantined   []string   `json:"quarantined,omitempty"`
	LastAppend    *time.Time `json:"last_append,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	var quarantined []string
	if len(r.quarantined) > 0 {
		quarantined = append(quarantined, r.quarantined...)
	}

	return RepositoryState{
		Path:          r.Path,
		Order:         string(r.config.Order),
		CacheSize:     r.cache.Len(),
		Versioned:     r.config.Versioned,
		WatcherActive: r.watcherActive,
		CorruptReads:  r.corruptReads,
		Quarantined:   quarantined,
		LastAppend:    r.lastAppend,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordAppend() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	now := time.Now()
	r.lastAppend = &now
}
