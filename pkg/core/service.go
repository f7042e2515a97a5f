package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Policy controls how raw input is validated and which defaults fill the
// optional fields. It is fixed per deployment.
type Policy struct {
	MinLength     int // minimum payload length in runes; 0 disables the check
	MaxLength     int // maximum payload length in runes; 0 disables the check
	DefaultTitle  string
	DefaultName   string
	DefaultSource string
	DateLayout    string // time layout for Entry.Date
	UTC           bool   // format dates in UTC instead of local time
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     10,
		MaxLength:     10000,
		DefaultTitle:  "Weekly Reflection",
		DefaultName:   "Anonymous",
		DefaultSource: "api",
		DateLayout:    time.RFC3339,
		UTC:           true,
	}
}

// Service handles the business logic for reflections.
type Service struct {
	repo    Repository
	policy  Policy
	now     func() time.Time
	logger  *slog.Logger
	observe func(result string)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPolicy replaces the default validation policy.
// Zero-valued defaults in p fall back to DefaultPolicy.
func WithPolicy(p Policy) ServiceOption {
	return func(s *Service) {
		def := DefaultPolicy()
		if p.DefaultTitle == "" {
			p.DefaultTitle = def.DefaultTitle
		}
		if p.DefaultName == "" {
			p.DefaultName = def.DefaultName
		}
		if p.DefaultSource == "" {
			p.DefaultSource = def.DefaultSource
		}
		if p.DateLayout == "" {
			p.DateLayout = def.DateLayout
		}
		s.policy = p
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithServiceLogger sets the logger used for submission events.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSubmissionObserver registers fn to be called with "saved", "rejected"
// or "failed" after every submission.
func WithSubmissionObserver(fn func(result string)) ServiceOption {
	return func(s *Service) {
		s.observe = fn
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:    repo,
		policy:  DefaultPolicy(),
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		observe: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the validation policy. It is fixed at construction.
func (s *Service) Policy() Policy {
	return s.policy
}

// Repository exposes the underlying store.
func (s *Service) Repository() Repository {
	return s.repo
}

// ListEntries returns the stored entries in store order.
func (s *Service) ListEntries(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}

// SubmitEntry validates raw input, builds a normalized entry and appends it.
//
// Workflow:
//  1. Pick the payload (text, then the legacy content/reflection aliases) and trim it.
//  2. Reject empty or out-of-policy input without touching the store.
//  3. Stamp id and date, apply default title/name/source.
//  4. Delegate to Repository.Append and return the stored entry.
func (s *Service) SubmitEntry(ctx context.Context, in Input) (Entry, error) {
	res, err := s.Submit(ctx, in)
	if err != nil {
		return Entry{}, err
	}
	return res.Entry, nil
}

// Submit is SubmitEntry but also returns the sequence as it stood right
// after the append, so callers can report a position without a second read.
func (s *Service) Submit(ctx context.Context, in Input) (AppendResult, error) {
	entry, err := s.Normalize(in)
	if err != nil {
		s.logger.Debug("reflection rejected", "reason", err.Error())
		s.observe("rejected")
		return AppendResult{}, err
	}

	res, err := s.repo.Append(ctx, entry)
	if err != nil {
		s.logger.Error("failed to append reflection", "error", err)
		s.observe("failed")
		return AppendResult{}, err
	}

	s.observe("saved")
	s.logger.Info("reflection saved", "id", res.Entry.ID, "entries", len(res.Entries), "source", res.Entry.Source)
	return res, nil
}

// Normalize converts raw input into a canonical entry without persisting it.
func (s *Service) Normalize(in Input) (Entry, error) {
	p := s.Policy()

	text := strings.TrimSpace(in.Payload())
	if text == "" {
		return Entry{}, ErrEmptyInput
	}

	n := utf8.RuneCountInString(text)
	if p.MinLength > 0 && n < p.MinLength {
		return Entry{}, &ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("reflection too short: please write at least %d characters", p.MinLength),
		}
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return Entry{}, &ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("reflection too long: please keep it under %d characters", p.MaxLength),
		}
	}

	now := s.now()
	if p.UTC {
		now = now.UTC()
	}

	return Entry{
		ID:     now.UnixMilli(),
		Date:   now.Format(p.DateLayout),
		Title:  orDefault(in.Title, p.DefaultTitle),
		Text:   text,
		Source: orDefault(in.Source, p.DefaultSource),
		Name:   orDefault(in.Name, p.DefaultName),
	}, nil
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	return w.Watch(ctx)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
