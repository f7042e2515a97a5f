package fs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/journal/pkg/core"
)

// Watch reports changes to the backing document, whoever made them.
// The parent directory is watched because atomic writes replace the file.
// The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(r.Path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	events := make(chan core.Event, 16)
	name := filepath.Base(r.Path)
	r.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer watcher.Close()
		defer r.setWatcherActive(false)

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				typ, relevant := classify(ev.Op)
				if !relevant {
					continue
				}
				r.cache.Invalidate()

				select {
				case events <- core.Event{Type: typ, Path: r.Path, Timestamp: time.Now().Unix()}:
				case <-ctx.Done():
					return nil
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.logger.Warn("journal watcher error", "error", err)
			}
		}
	})

	return events, nil
}

func classify(op fsnotify.Op) (core.EventType, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return core.EventRemove, true
	case op.Has(fsnotify.Create), op.Has(fsnotify.Write):
		return core.EventModify, true
	default:
		return "", false
	}
}

var _ core.Watchable = (*Repository)(nil)
