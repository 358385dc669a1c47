// Package cache provides a short-TTL memo of composed answers keyed by
// (question, drug). Entries are purely derived; losing the cache never
// loses correctness, only latency.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
)

// Payload is the cached answer material for one (question, drug) pair.
type Payload struct {
	Answer        string           `json:"answer,omitempty"`
	ValidatedDrug string           `json:"validatedDrug,omitempty"`
	Chunks        []entities.Chunk `json:"chunks"`
	RelatedDrugs  []string         `json:"relatedDrugs,omitempty"`
}

type entry struct {
	payload   Payload
	expiresAt time.Time
}

// ResponseCache is a process-wide concurrent map with lazy TTL eviction on
// write. Writes are atomic at entry granularity; racing writers to the same
// key recompute the same value, so last-write-wins is harmless.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewResponseCache creates a cache with the given time-to-live.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key derives the cache key from the lower-cased trimmed question and the
// normalized drug name (empty string when no drug resolved).
func Key(question, drug string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	d := formulary.NormalizeDrugName(drug)
	sum := sha256.Sum256([]byte(q + "\x00" + d))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached payload for (question, drug) when present and
// unexpired. An expired entry is a miss; it is evicted on the next write.
func (c *ResponseCache) Get(question, drug string) (Payload, bool) {
	c.mu.RLock()
	e, ok := c.entries[Key(question, drug)]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return Payload{}, false
	}
	return e.payload, true
}

// Put stores the payload under the request drug key and, when the resolved
// drug differs, under the resolved-drug key as well, so a later question
// naming the drug explicitly hits the entry a follow-up produced implicitly.
// Expired entries are swept here, not on read.
func (c *ResponseCache) Put(question, requestDrug, resolvedDrug string, payload Payload) {
	now := c.now()
	e := entry{payload: payload, expiresAt: now.Add(c.ttl)}

	requestKey := Key(question, requestDrug)
	resolvedKey := Key(question, resolvedDrug)

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, existing := range c.entries {
		if !now.Before(existing.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[requestKey] = e
	if resolvedKey != requestKey {
		c.entries[resolvedKey] = e
	}
}

// Len returns the number of live entries, counting unexpired only.
func (c *ResponseCache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
