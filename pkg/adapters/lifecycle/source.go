// Package lifecycle bridges journal change events into the lifecycle
// runtime so they can be consumed alongside other event sources.
package lifecycle

import (
	"context"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/journal/pkg/core"
)

// DefaultSettle is how long the document must stay quiet before a change is
// reported. One append shows up as several filesystem events (the rename of
// the temp file, a quarantine, an editor's remove+create), and readers only
// care about the state once it settles.
const DefaultSettle = 50 * time.Millisecond

// SourceOption configures a change source.
type SourceOption func(*changeSource)

// WithSettle sets the quiet period. Zero forwards every event as is.
func WithSettle(d time.Duration) SourceOption {
	return func(s *changeSource) {
		s.settle = d
	}
}

type changeSource struct {
	changes <-chan core.Event
	out     chan lifecycle.Event
	settle  time.Duration
}

// NewSource creates a lifecycle.Source that emits store change events.
//
// Events arriving within the settle period of each other are merged into the
// last one, so a document that was removed and recreated is reported once as
// MODIFY and a document that is gone as REMOVE. The source closes its
// channel when the change channel closes or the context passed to Start is
// done; a pending change is flushed on close.
func NewSource(changes <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &changeSource{
		changes: changes,
		out:     make(chan lifecycle.Event),
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *changeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)

		var (
			pending *core.Event
			timer   *time.Timer
			fire    <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		emit := func() bool {
			if pending == nil {
				return true
			}
			select {
			case s.out <- *pending:
				pending = nil
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.changes:
				if !ok {
					emit()
					return nil
				}
				pending = &e
				if s.settle <= 0 {
					if !emit() {
						return nil
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(s.settle)
				} else {
					timer.Reset(s.settle)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !emit() {
					return nil
				}
			}
		}
	})
	return nil
}
