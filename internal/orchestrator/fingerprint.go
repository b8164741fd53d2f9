package orchestrator

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// FingerprintCache maps file labels to content hashes so unchanged files can
// skip re-parsing. It also owns the session-scoped advisory flag that limits
// provider-unavailability warnings to one per session.
type FingerprintCache struct {
	mu      sync.Mutex
	hashes  map[string]uint64
	advised bool
}

// NewFingerprintCache creates an empty FingerprintCache.
func NewFingerprintCache() *FingerprintCache {
	return &FingerprintCache{hashes: make(map[string]uint64)}
}

// Fingerprint hashes file content. xxh3 is non-cryptographic; a collision
// only causes a missed re-parse, never corruption.
func Fingerprint(content []byte) uint64 {
	return xxh3.Hash(content)
}

// Unchanged reports whether the stored hash for label matches hash.
func (c *FingerprintCache) Unchanged(label string, hash uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.hashes[label]
	return ok && prev == hash
}

// Store records the hash for label. Called only after the parse result has
// been delivered downstream, so a failed delivery forces a re-parse next time.
func (c *FingerprintCache) Store(label string, hash uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[label] = hash
}

// Evict removes the entry for label.
func (c *FingerprintCache) Evict(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hashes, label)
}

// Reset clears all entries and re-arms the advisory flag.
func (c *FingerprintCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes = make(map[string]uint64)
	c.advised = false
}

// Len returns the number of cached fingerprints.
func (c *FingerprintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hashes)
}

// FirstAdvisory reports true exactly once per session. Callers use it to
// surface the provider-unavailability warning a single time instead of once
// per degraded file.
func (c *FingerprintCache) FirstAdvisory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.advised {
		return false
	}
	c.advised = true
	return true
}
