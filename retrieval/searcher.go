// Package retrieval fans a question out into expanded similarity queries,
// merges and deduplicates the results, and ranks chunks matching the
// resolved drug to the top.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
)

// Compile-time check to ensure LexicalSearcher implements Searcher
var _ interfaces.Searcher = (*LexicalSearcher)(nil)

// LexicalSearcher is the default in-process similarity-search collaborator:
// a token-overlap scorer over the corpus container. Drug-name token hits
// weigh double so a query naming the drug surfaces its chunks first.
type LexicalSearcher struct {
	store interfaces.CorpusStore
}

// NewLexicalSearcher creates a searcher over the given corpus store.
func NewLexicalSearcher(store interfaces.CorpusStore) *LexicalSearcher {
	return &LexicalSearcher{store: store}
}

// Search scores every chunk against the query and returns the best `limit`
// matches, best-first. Zero-score chunks are never returned.
func (s *LexicalSearcher) Search(ctx context.Context, query string, limit int) ([]entities.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || limit <= 0 {
		return nil, nil
	}

	chunks := s.store.GetChunks()

	type scored struct {
		index int
		score int
	}
	matches := make([]scored, 0, len(chunks))

	for i, chunk := range chunks {
		score := overlapScore(queryTokens, chunk.Content, chunk.Metadata.DrugName)
		if score > 0 {
			matches = append(matches, scored{index: i, score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]entities.Chunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, chunks[m.index])
	}
	return results, nil
}

// overlapScore counts query tokens present in the chunk content, with drug
// name token hits counted twice more.
func overlapScore(queryTokens []string, content, drugName string) int {
	contentTokens := tokenSet(content)
	nameTokens := tokenSet(drugName)

	score := 0
	for _, token := range queryTokens {
		if _, ok := contentTokens[token]; ok {
			score++
		}
		if _, ok := nameTokens[token]; ok {
			score += 2
		}
	}
	return score
}

func tokenize(s string) []string {
	folded := strings.ToLower(formulary.FoldAccents(s))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func tokenSet(s string) map[string]struct{} {
	tokens := tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
