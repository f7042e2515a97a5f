package fs

import (
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/aretw0/journal/pkg/core"
)

const snapshotKey = "document"

// snapshot is a decoded document together with the file identity it was
// read from. It is only served while the file still has the same mtime and
// size, so writes by other processes are never masked.
type snapshot struct {
	modTime time.Time
	size    int64
	entries []core.Entry
}

// cache holds the last decoded snapshot of the backing document.
type cache struct {
	store *gocache.Cache
}

// newCache creates a snapshot cache. A ttl of zero keeps snapshots until
// they are invalidated.
func newCache(ttl time.Duration) *cache {
	if ttl <= 0 {
		return &cache{store: gocache.New(gocache.NoExpiration, 0)}
	}
	return &cache{store: gocache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached entries if the snapshot matches info.
func (c *cache) Get(info os.FileInfo) ([]core.Entry, bool) {
	v, ok := c.store.Get(snapshotKey)
	if !ok {
		return nil, false
	}
	snap := v.(snapshot)
	if !snap.modTime.Equal(info.ModTime()) || snap.size != info.Size() {
		return nil, false
	}
	return core.CloneEntries(snap.entries), true
}

// Put stores entries as the snapshot for info.
func (c *cache) Put(info os.FileInfo, entries []core.Entry) {
	c.store.Set(snapshotKey, snapshot{
		modTime: info.ModTime(),
		size:    info.Size(),
		entries: core.CloneEntries(entries),
	}, gocache.DefaultExpiration)
}

// Invalidate drops the snapshot.
func (c *cache) Invalidate() {
	c.store.Delete(snapshotKey)
}

// Len returns the number of cached entries (0 when cold).
func (c *cache) Len() int {
	v, ok := c.store.Get(snapshotKey)
	if !ok {
		return 0
	}
	return len(v.(snapshot).entries)
}
