package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/journal/pkg/core"
)

const lockPollInterval = 10 * time.Millisecond

// fileLock is a cross-process lock backed by an O_EXCL lock file next to the
// document. It complements the in-process mutex so a CLI and a server can
// append to the same document.
//
// The file holds "<pid> <token>". A holder only removes the file while it
// still carries its own token, so a lock that was broken as stale and taken
// by someone else survives the late release of the old holder.
type fileLock struct {
	path    string
	timeout time.Duration
	stale   time.Duration
}

func newFileLock(path string, timeout, stale time.Duration) *fileLock {
	return &fileLock{path: path, timeout: timeout, stale: stale}
}

// Acquire blocks until the lock is held, the timeout elapses or ctx is done.
// The returned function releases the lock.
func (l *fileLock) Acquire(ctx context.Context) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	owner := strconv.Itoa(os.Getpid()) + " " + uuid.NewString()

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.WriteString(owner + "\n")
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(l.path)
				return nil, fmt.Errorf("failed to write lock: %w", errors.Join(werr, cerr))
			}
			return func() { l.release(owner) }, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if l.breakStale(owner) {
			continue
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w (%s)", core.ErrLockTimeout, l.path)
			}
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// release removes the lock file if it still belongs to owner.
func (l *fileLock) release(owner string) {
	if l.holder() == owner {
		os.Remove(l.path)
	}
}

func (l *fileLock) holder() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// breakStale removes a lock file older than the stale threshold, which is
// left behind when a holder crashed.
//
// The file is first renamed to a name only this waiter uses. Rename is
// atomic, so exactly one waiter wins a given stale file. If the file it
// grabbed turns out to be fresh (replaced between the stat and the rename),
// it is linked back into place and left alone.
func (l *fileLock) breakStale(owner string) bool {
	if l.stale <= 0 {
		return false
	}
	info, err := os.Stat(l.path)
	if err != nil || time.Since(info.ModTime()) < l.stale {
		return false
	}

	grabbed := l.path + ".stale-" + owner[len(owner)-8:]
	if err := os.Rename(l.path, grabbed); err != nil {
		return false
	}
	defer os.Remove(grabbed)

	info, err = os.Stat(grabbed)
	if err == nil && time.Since(info.ModTime()) < l.stale {
		// A live lock. Put it back unless yet another holder took the path.
		_ = os.Link(grabbed, l.path)
		return false
	}
	return true
}
