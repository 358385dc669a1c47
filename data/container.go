// Package data provides thread-safe storage for the parsed formulary corpus.
// The CorpusContainer uses atomic pointers so a re-ingest replaces the whole
// corpus with zero downtime for concurrent readers.
package data

import (
	"sync/atomic"
	"time"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
)

// Compile-time check to ensure CorpusContainer implements CorpusStore
var _ interfaces.CorpusStore = (*CorpusContainer)(nil)

// CorpusContainer holds the corpus behind atomic values.
type CorpusContainer struct {
	entries         atomic.Value // []entities.DrugEntry
	chunks          atomic.Value // []entities.Chunk
	drugIndex       atomic.Value // map[string]entities.DrugEntry keyed by normalized name
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCorpusContainer creates a container with empty data.
func NewCorpusContainer() *CorpusContainer {
	c := &CorpusContainer{}
	c.entries.Store(make([]entities.DrugEntry, 0))
	c.chunks.Store(make([]entities.Chunk, 0))
	c.drugIndex.Store(make(map[string]entities.DrugEntry))
	c.lastUpdated.Store(time.Time{})
	c.serverStartTime.Store(time.Time{})
	return c
}

// Thread-safe getters with type check

// GetEntries returns the parsed drug entries.
func (c *CorpusContainer) GetEntries() []entities.DrugEntry {
	if v := c.entries.Load(); v != nil {
		if entries, ok := v.([]entities.DrugEntry); ok {
			return entries
		}
	}

	logging.Warn("Entries list is empty or invalid")
	return []entities.DrugEntry{}
}

// GetChunks returns the retrievable chunks of the current build.
func (c *CorpusContainer) GetChunks() []entities.Chunk {
	if v := c.chunks.Load(); v != nil {
		if chunks, ok := v.([]entities.Chunk); ok {
			return chunks
		}
	}

	logging.Warn("Chunks list is empty or invalid")
	return []entities.Chunk{}
}

// GetDrugIndex returns the normalized-name lookup map.
func (c *CorpusContainer) GetDrugIndex() map[string]entities.DrugEntry {
	if v := c.drugIndex.Load(); v != nil {
		if index, ok := v.(map[string]entities.DrugEntry); ok {
			return index
		}
	}

	logging.Warn("Drug index is empty or invalid")
	return make(map[string]entities.DrugEntry)
}

// GetLastUpdated returns the timestamp of the last corpus build.
func (c *CorpusContainer) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true while a corpus rebuild is in progress.
func (c *CorpusContainer) IsUpdating() bool {
	return c.updating.Load()
}

// SetServerStartTime sets the server start time.
func (c *CorpusContainer) SetServerStartTime(t time.Time) {
	c.serverStartTime.Store(t)
}

// GetServerStartTime returns the server start time.
func (c *CorpusContainer) GetServerStartTime() time.Time {
	if v := c.serverStartTime.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCorpus atomically replaces the corpus (zero downtime swap).
func (c *CorpusContainer) UpdateCorpus(entries []entities.DrugEntry, chunks []entities.Chunk,
	drugIndex map[string]entities.DrugEntry) {

	c.entries.Store(entries)
	c.chunks.Store(chunks)
	c.drugIndex.Store(drugIndex)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a corpus rebuild.
// Returns false when another rebuild is already running.
func (c *CorpusContainer) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a corpus rebuild.
func (c *CorpusContainer) EndUpdate() {
	c.updating.Store(false)
}

// BuildDrugIndex builds the normalized-name lookup map. When the same drug
// appears in several entries (non-contiguous pages are not merged by the
// parser), the entry with more populated sections wins the index slot.
func BuildDrugIndex(entries []entities.DrugEntry) map[string]entities.DrugEntry {
	index := make(map[string]entities.DrugEntry, len(entries))
	for _, entry := range entries {
		key := formulary.NormalizeDrugName(entry.DrugName)
		if key == "" {
			continue
		}
		if existing, ok := index[key]; ok && len(existing.Sections) >= len(entry.Sections) {
			continue
		}
		index[key] = entry
	}
	return index
}
