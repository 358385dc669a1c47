package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
	"github.com/pharmexa/formulary-api/metrics"
)

// dedupPrefixLen is the content-prefix fallback length for chunks carrying
// neither an id nor composite metadata.
const dedupPrefixLen = 80

// Orchestrator expands one question into up to three similarity queries,
// executes them concurrently, and merges the results.
type Orchestrator struct {
	searcher interfaces.Searcher
}

// NewOrchestrator creates an orchestrator over the given searcher.
func NewOrchestrator(searcher interfaces.Searcher) *Orchestrator {
	return &Orchestrator{searcher: searcher}
}

// Retrieve runs the expanded queries for question (optionally biased by the
// drug hint), deduplicates the concatenated results, ranks hint-matching
// chunks first, and truncates to limit.
func (o *Orchestrator) Retrieve(ctx context.Context, question, drugHint string, limit int) ([]entities.Chunk, error) {
	start := time.Now()

	queries := expandQueries(question, drugHint)
	results := make([][]entities.Chunk, len(queries))

	var wg sync.WaitGroup
	wg.Add(len(queries))
	for i, query := range queries {
		go func(i int, query string) {
			defer wg.Done()
			chunks, err := o.searcher.Search(ctx, query, limit)
			if err != nil {
				// One failed expansion must not sink the others.
				logging.Warn("Similarity query failed", "query", query, "error", err)
				return
			}
			results[i] = chunks
		}(i, query)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieval cancelled: %w", err)
	}

	merged := dedupeChunks(results)
	ranked := rankByHint(merged, drugHint)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	return ranked, nil
}

// expandQueries builds the 1-3 underlying queries: hint+question when a
// hint exists, the bare hint when it is not already inside the question,
// and always the bare question.
func expandQueries(question, drugHint string) []string {
	var queries []string
	if drugHint != "" {
		queries = append(queries, drugHint+" "+question)
		if !strings.Contains(strings.ToLower(question), strings.ToLower(drugHint)) {
			queries = append(queries, drugHint)
		}
	}
	return append(queries, question)
}

// dedupeChunks concatenates the per-query results in query order and keeps
// the first occurrence of each chunk. The dedup key is the chunk id when
// present, else the composite (drug, section, source range), else a content
// prefix.
func dedupeChunks(results [][]entities.Chunk) []entities.Chunk {
	seen := make(map[string]struct{})
	var merged []entities.Chunk

	for _, chunks := range results {
		for _, chunk := range chunks {
			key := dedupKey(chunk)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, chunk)
		}
	}
	return merged
}

func dedupKey(chunk entities.Chunk) string {
	if chunk.ID != "" {
		return "id:" + chunk.ID
	}
	meta := chunk.Metadata
	if meta.DrugName != "" {
		return strings.ToLower(fmt.Sprintf("meta:%s|%s|%d-%d",
			meta.DrugName, meta.Section, meta.SourceRange.Start, meta.SourceRange.End))
	}
	content := chunk.Content
	if len(content) > dedupPrefixLen {
		content = content[:dedupPrefixLen]
	}
	return "content:" + content
}

// rankByHint stable-partitions chunks so those whose drug name matches the
// hint precede all others. Insertion order, which reflects the original
// similarity rank, is preserved within each partition.
func rankByHint(chunks []entities.Chunk, drugHint string) []entities.Chunk {
	if drugHint == "" {
		return chunks
	}

	matching := make([]entities.Chunk, 0, len(chunks))
	var rest []entities.Chunk
	for _, chunk := range chunks {
		if formulary.NamesMatch(chunk.Metadata.DrugName, drugHint) {
			matching = append(matching, chunk)
		} else {
			rest = append(rest, chunk)
		}
	}
	return append(matching, rest...)
}
