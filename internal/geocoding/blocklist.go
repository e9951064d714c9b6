package geocoding

import (
	"slices"
	"sync"
	"time"
)

// Blocklist remembers credentials a provider rejected so they are not retried on
// every request. Entries never expire; Clear is the only way out, typically after
// an operator rotated the key.
type Blocklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewBlocklist returns an empty blocklist.
func NewBlocklist() *Blocklist {
	return &Blocklist{entries: make(map[string]time.Time), now: time.Now}
}

// Mark blocks the credential identified by id. The first mark time is kept.
func (b *Blocklist) Mark(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[id]; !ok {
		b.entries[id] = b.now()
	}
}

// Blocked reports whether id has been marked.
func (b *Blocklist) Blocked(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.entries[id]

	return ok
}

// List returns the blocked identifiers, sorted.
func (b *Blocklist) List() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// Since returns when id was blocked.
func (b *Blocklist) Since(id string) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.entries[id]

	return t, ok
}

// Clear unblocks id, or every credential when no id is given.
func (b *Blocklist) Clear(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(ids) == 0 {
		clear(b.entries)
		return
	}

	for _, id := range ids {
		delete(b.entries, id)
	}
}
