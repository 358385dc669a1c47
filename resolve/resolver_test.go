package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// mockRetriever serves canned chunks keyed by the normalized hint. The
// fallback entry under "" answers unfiltered retrieval. Comparison mode
// retrieves concurrently, so call recording takes a lock.
type mockRetriever struct {
	mu     sync.Mutex
	byHint map[string][]entities.Chunk
	calls  []string
}

func (m *mockRetriever) Retrieve(ctx context.Context, question, drugHint string, limit int) ([]entities.Chunk, error) {
	m.mu.Lock()
	m.calls = append(m.calls, drugHint)
	m.mu.Unlock()
	chunks := m.byHint[strings.ToLower(drugHint)]
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

type mockClassifier struct {
	drug string
	err  error
}

func (m *mockClassifier) ClassifyDrug(ctx context.Context, question, previousDrug string, recentHistory []entities.ChatMessage) (string, error) {
	return m.drug, m.err
}

func drugChunks(name string, n int) []entities.Chunk {
	chunks := make([]entities.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, entities.Chunk{
			ID:      name + string(rune('a'+i)),
			Content: name + " content",
			Metadata: entities.ChunkMetadata{
				DrugName:    strings.ToUpper(name),
				SourceRange: entities.SourceRange{Start: 1, End: 1},
			},
		})
	}
	return chunks
}

func TestResolveFollowUpContinuity(t *testing.T) {
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"paracetamol": drugChunks("paracetamol", 3),
	}}
	resolver := NewResolver(retriever, nil, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question:     "side effects?",
		PreviousDrug: "Paracetamol",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ValidatedDrug != "Paracetamol" {
		t.Errorf("expected validated drug Paracetamol, got %q", res.ValidatedDrug)
	}
	if len(retriever.calls) == 0 || retriever.calls[0] != "Paracetamol" {
		t.Errorf("initial candidate should be the previous drug, calls: %v", retriever.calls)
	}
}

func TestResolveValidationFallback(t *testing.T) {
	// The extracted candidate retrieves nothing of its own; the previous
	// drug validates against its own result set.
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"zyrtecol":  drugChunks("naproxen", 2),
		"ibuprofen": drugChunks("ibuprofen", 4),
	}}
	resolver := NewResolver(retriever, nil, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question:     "tell me about Zyrtecol",
		PreviousDrug: "Ibuprofen",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ValidatedDrug != "Ibuprofen" {
		t.Errorf("expected fallback to Ibuprofen, got %q", res.ValidatedDrug)
	}
}

func TestResolveNothingValidates(t *testing.T) {
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"": drugChunks("aspirin", 2),
	}}
	resolver := NewResolver(retriever, nil, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question:     "tell me about Zyrtecol",
		PreviousDrug: "Nonexistol",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ValidatedDrug != "" {
		t.Errorf("expected no validated drug, got %q", res.ValidatedDrug)
	}
	if len(res.Chunks) != 2 {
		t.Errorf("unfiltered retrieval should still answer, got %d chunks", len(res.Chunks))
	}
	if last := retriever.calls[len(retriever.calls)-1]; last != "" {
		t.Errorf("final retrieval should be unfiltered, got hint %q", last)
	}
}

func TestResolveClassifierPriority(t *testing.T) {
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"naproxen":  drugChunks("naproxen", 2),
		"ibuprofen": drugChunks("ibuprofen", 2),
	}}
	classifier := &mockClassifier{drug: "Naproxen"}
	resolver := NewResolver(retriever, classifier, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question:     "what was that dosage again?",
		PreviousDrug: "Ibuprofen",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ValidatedDrug != "Naproxen" {
		t.Errorf("classifier opinion should outrank the previous drug, got %q", res.ValidatedDrug)
	}
}

func TestResolveClassifierFailureFallsBack(t *testing.T) {
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"paracetamol": drugChunks("paracetamol", 2),
	}}
	classifier := &mockClassifier{err: errors.New("timeout")}
	resolver := NewResolver(retriever, classifier, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question:     "dosage?",
		PreviousDrug: "Paracetamol",
	})
	if err != nil {
		t.Fatalf("classifier failure must not surface: %v", err)
	}

	if res.ValidatedDrug != "Paracetamol" {
		t.Errorf("expected silent fallback to previous drug, got %q", res.ValidatedDrug)
	}
}

func TestResolveComparisonSymmetry(t *testing.T) {
	retriever := &mockRetriever{byHint: map[string][]entities.Chunk{
		"paracetamol": drugChunks("paracetamol", 8),
		"ibuprofen":   drugChunks("ibuprofen", 8),
	}}
	resolver := NewResolver(retriever, nil, 8, 5, time.Second)

	res, err := resolver.Resolve(context.Background(), Request{
		Question: "Paracetamol vs Ibuprofen",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.ComparisonDrugs) != 2 {
		t.Fatalf("expected two comparison drugs, got %v", res.ComparisonDrugs)
	}

	// Each drug contributes up to its own per-drug cap, concatenated.
	if len(res.Chunks) != 10 {
		t.Fatalf("expected 5+5 chunks, got %d", len(res.Chunks))
	}
	counts := map[string]int{}
	for _, chunk := range res.Chunks {
		counts[chunk.Metadata.DrugName]++
	}
	if counts["PARACETAMOL"] != 5 || counts["IBUPROFEN"] != 5 {
		t.Errorf("expected fair 5/5 split, got %v", counts)
	}

	// The two result sets stay un-co-mingled: first drug's chunks first.
	for i, chunk := range res.Chunks {
		want := "PARACETAMOL"
		if i >= 5 {
			want = "IBUPROFEN"
		}
		if chunk.Metadata.DrugName != want {
			t.Fatalf("chunk %d belongs to %s, want %s", i, chunk.Metadata.DrugName, want)
		}
	}
}

func TestCandidateChainDeduplicates(t *testing.T) {
	rc := &resolvedContext{
		classifierDrug: "Paracetamol",
		heuristicDrug:  "PARACETAMOL",
		previousDrug:   "Ibuprofen",
	}
	chain := rc.candidates()
	if len(chain) != 2 {
		t.Fatalf("expected 2 unique candidates, got %v", chain)
	}
	if chain[0] != "Paracetamol" || chain[1] != "Ibuprofen" {
		t.Errorf("unexpected chain order: %v", chain)
	}
}
