package pipeline

import (
	"sync"

	"presentation-server/internal/domain/slideimage"
)

// Outcome classifies a dedup cache lookup.
type Outcome int

const (
	// Unknown means the (session, prompt) pair has never been checked
	// against the store; the caller must query it once and Record the result.
	Unknown Outcome = iota
	// Found means a stored image is memoized for the pair.
	Found
	// NotFound means the store was already checked and had no row.
	NotFound
)

const noSessionSentinel = "no-session"

// DedupCache memoizes store lookup outcomes, positive and negative, for the
// lifetime of the client session. It eliminates repeated store round-trips
// when the same prompt recurs.
type DedupCache struct {
	mu      sync.Mutex
	entries map[string]*slideimage.GeneratedImage // nil value = confirmed absent
}

func NewDedupCache() *DedupCache {
	return &DedupCache{entries: make(map[string]*slideimage.GeneratedImage)}
}

func cacheKey(sessionID, prompt string) string {
	if sessionID == "" {
		sessionID = noSessionSentinel
	}
	return sessionID + "-" + prompt
}

// Lookup returns the memoized image (Found), a confirmed absence (NotFound),
// or Unknown when the store has not been consulted for this pair yet.
func (c *DedupCache) Lookup(sessionID, prompt string) (*slideimage.GeneratedImage, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.entries[cacheKey(sessionID, prompt)]
	if !ok {
		return nil, Unknown
	}
	if img == nil {
		return nil, NotFound
	}
	return img, Found
}

// Record memoizes a store lookup outcome. A nil image records a confirmed
// absence so the store is not queried again for this pair.
func (c *DedupCache) Record(sessionID, prompt string, img *slideimage.GeneratedImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(sessionID, prompt)] = img
}

// Invalidate drops the entry for one pair, forcing re-evaluation.
func (c *DedupCache) Invalidate(sessionID, prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(sessionID, prompt))
}

// Reset discards everything; used on session change.
func (c *DedupCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*slideimage.GeneratedImage)
}

// Len returns the number of memoized pairs.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
