package sqlite

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path         string     `json:"path"`
	Order        string     `json:"order"`
	Open         bool       `json:"open"`
	Appends      int        `json:"appends"`
	LastAppend   *time.Time `json:"last_append,omitempty"`
	CorruptReads int        `json:"corrupt_reads"`
	Quarantined  []string   `json:"quarantined,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.Lock()
	open := r.db != nil
	r.mu.Unlock()

	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return RepositoryState{
		Path:         r.Path,
		Order:        string(r.config.Order),
		Open:         open,
		Appends:      r.appends,
		LastAppend:   r.lastAppend,
		CorruptReads: r.corruptReads,
		Quarantined:  append([]string(nil), r.quarantined...),
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
