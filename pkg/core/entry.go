// Package core holds the journal domain: the reflection entry, the store
// contract and the service that normalizes input before it reaches a store.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a single reflection record.
// The JSON field names are the persisted schema and must not drift.
type Entry struct {
	ID     int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Date   string `json:"date" yaml:"date"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Input is raw, un-normalized submission data coming from a CLI prompt or an
// HTTP request. Content and Reflection are accepted as aliases of Text for
// clients that still post the older field names.
type Input struct {
	Text       string `json:"text" form:"text"`
	Content    string `json:"content" form:"content"`
	Reflection string `json:"reflection" form:"reflection"`
	Title      string `json:"title" form:"title"`
	Name       string `json:"name" form:"name"`
	Source     string `json:"source" form:"source"`
}

// Payload returns the first non-blank of Text, Content and Reflection.
func (in Input) Payload() string {
	for _, candidate := range []string{in.Text, in.Content, in.Reflection} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// Order is the insertion policy of a store. A store uses exactly one.
type Order string

const (
	// OldestFirst appends new entries at the end of the document.
	OldestFirst Order = "oldest_first"
	// NewestFirst inserts new entries at the front of the document.
	NewestFirst Order = "newest_first"
)

// ParseOrder validates an order name. The empty string maps to OldestFirst.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OldestFirst:
		return OldestFirst, nil
	case NewestFirst:
		return NewestFirst, nil
	default:
		return "", fmt.Errorf("unknown entry order %q (want %q or %q)", s, OldestFirst, NewestFirst)
	}
}

// Insert returns a new slice with e placed according to the order.
// The input slice is not modified.
func (o Order) Insert(entries []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	if o == NewestFirst {
		out = append(out, e)
		return append(out, entries...)
	}
	out = append(out, entries...)
	return append(out, e)
}

// MaxID returns the highest ID in entries, or zero.
func MaxID(entries []Entry) int64 {
	var max int64
	for _, e := range entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}

// NextID returns candidate if it is above maxID, otherwise maxID+1.
// Stores call it under their write lock so IDs stay unique and increasing
// even when two submissions land in the same millisecond.
func NextID(maxID, candidate int64) int64 {
	if candidate > maxID {
		return candidate
	}
	return maxID + 1
}

// CloneEntries returns a copy that callers may mutate freely.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// EventType represents the type of change observed on a store.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventRemove EventType = "REMOVE"
)

// Event represents a change of the backing document made by any writer,
// including other processes.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Type, e.Path, time.Unix(e.Timestamp, 0).Format(time.RFC3339))
}
