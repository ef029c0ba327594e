// Package moderation holds abuse detection and operator command handling:
// the origin ban list, the per-connection rate limiter, the celebration
// keyword trigger and the privileged command engine.
package moderation

import "sync"

// BanList is the process-wide set of banned network origins. Entries
// never expire and are never persisted; a restart clears them.
type BanList struct {
	mu      sync.RWMutex
	origins map[string]struct{}
}

func NewBanList() *BanList {
	return &BanList{origins: make(map[string]struct{})}
}

func (b *BanList) Ban(origin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.origins[origin] = struct{}{}
}

func (b *BanList) IsBanned(origin string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.origins[origin]
	return ok
}

func (b *BanList) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.origins)
}
