package resolve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
	"github.com/pharmexa/formulary-api/metrics"
)

// Retriever runs the expanded similarity queries for one question.
type Retriever interface {
	Retrieve(ctx context.Context, question, drugHint string, limit int) ([]entities.Chunk, error)
}

// Request is one question with its conversational context.
type Request struct {
	Question     string
	ChatHistory  []entities.ChatMessage
	PreviousDrug string
}

// Resolution is the outcome of resolving one request: the drug the engine
// settled on (empty when no candidate validated), the ranked chunks backing
// the answer, and for comparison questions the two drug names involved.
type Resolution struct {
	ValidatedDrug   string
	Chunks          []entities.Chunk
	ComparisonDrugs []string
}

// resolvedContext is the per-request working state of the candidate chain.
// It lives for one resolution and is never shared.
type resolvedContext struct {
	heuristicDrug  string
	previousDrug   string
	classifierDrug string
}

// candidates returns the fallback chain in priority order with duplicates
// and empty entries removed: classifier opinion, then heuristic hint, then
// the previous turn's drug.
func (rc *resolvedContext) candidates() []string {
	ordered := []string{rc.classifierDrug, rc.heuristicDrug, rc.previousDrug}
	seen := make(map[string]struct{}, len(ordered))

	var chain []string
	for _, candidate := range ordered {
		if candidate == "" {
			continue
		}
		normalized := formulary.NormalizeDrugName(candidate)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		chain = append(chain, candidate)
	}
	return chain
}

// matchedDrugs collects the normalized drug names actually present in a
// retrieval result.
func matchedDrugs(chunks []entities.Chunk) map[string]struct{} {
	matches := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if name := formulary.NormalizeDrugName(chunk.Metadata.DrugName); name != "" {
			matches[name] = struct{}{}
		}
	}
	return matches
}

// validates reports whether the candidate is supported by its own retrieval
// result: its normalized form equals, or is a substring of, a drug name
// present in the result set.
func validates(candidate string, matches map[string]struct{}) bool {
	for name := range matches {
		if formulary.NamesMatch(candidate, name) {
			return true
		}
	}
	return false
}

// Resolver reconciles the heuristic hint, the previous-turn drug, and an
// optional classifier opinion into one validated drug, then retrieves the
// chunks supporting it.
type Resolver struct {
	retriever         Retriever
	classifier        interfaces.Classifier // nil when not configured
	retrievalLimit    int
	comparisonDrugCap int
	classifierTimeout time.Duration
}

// NewResolver creates a resolver. classifier may be nil, in which case the
// heuristic and previous-drug candidates carry the resolution alone.
func NewResolver(retriever Retriever, classifier interfaces.Classifier,
	retrievalLimit, comparisonDrugCap int, classifierTimeout time.Duration) *Resolver {
	return &Resolver{
		retriever:         retriever,
		classifier:        classifier,
		retrievalLimit:    retrievalLimit,
		comparisonDrugCap: comparisonDrugCap,
		classifierTimeout: classifierTimeout,
	}
}

// Resolve answers one request. Comparison questions resolve each drug
// independently and concatenate the two capped result sets; everything
// else walks the candidate chain until one drug validates against its own
// retrieval, falling back to unfiltered retrieval when none does.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if first, second, ok := DetectComparison(req.Question); ok {
		return r.resolveComparison(ctx, req.Question, first, second)
	}
	return r.resolveSingle(ctx, req)
}

func (r *Resolver) resolveSingle(ctx context.Context, req Request) (*Resolution, error) {
	rc := &resolvedContext{
		heuristicDrug: HeuristicDrug(req.Question, req.PreviousDrug),
		previousDrug:  req.PreviousDrug,
	}
	rc.classifierDrug = r.classify(ctx, req)

	for _, candidate := range rc.candidates() {
		chunks, err := r.retriever.Retrieve(ctx, req.Question, candidate, r.retrievalLimit)
		if err != nil {
			return nil, fmt.Errorf("retrieval for candidate %q: %w", candidate, err)
		}
		if validates(candidate, matchedDrugs(chunks)) {
			metrics.QuestionsTotal.WithLabelValues("validated").Inc()
			return &Resolution{ValidatedDrug: candidate, Chunks: chunks}, nil
		}
		logging.Debug("Candidate not present in its retrieval results", "candidate", candidate)
	}

	// Nothing validated. Answer from the plain question rather than fail.
	chunks, err := r.retriever.Retrieve(ctx, req.Question, "", r.retrievalLimit)
	if err != nil {
		return nil, fmt.Errorf("unfiltered retrieval: %w", err)
	}
	metrics.QuestionsTotal.WithLabelValues("unresolved").Inc()
	return &Resolution{Chunks: chunks}, nil
}

// resolveComparison resolves the two drugs concurrently, each capped to its
// own per-drug limit. The result sets are concatenated, never re-ranked
// against each other, so both drugs keep fair representation.
func (r *Resolver) resolveComparison(ctx context.Context, question, first, second string) (*Resolution, error) {
	drugs := []string{first, second}
	results := make([][]entities.Chunk, len(drugs))
	validated := make([]string, len(drugs))
	errs := make([]error, len(drugs))

	var wg sync.WaitGroup
	wg.Add(len(drugs))
	for i, drug := range drugs {
		go func(i int, drug string) {
			defer wg.Done()
			chunks, err := r.retriever.Retrieve(ctx, question, drug, r.comparisonDrugCap)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = chunks
			if validates(drug, matchedDrugs(chunks)) {
				validated[i] = drug
			}
		}(i, drug)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("comparison retrieval: %w", err)
		}
	}

	resolution := &Resolution{
		ComparisonDrugs: drugs,
		Chunks:          append(results[0], results[1]...),
	}
	if validated[0] != "" {
		resolution.ValidatedDrug = validated[0]
	} else if validated[1] != "" {
		resolution.ValidatedDrug = validated[1]
	}

	metrics.QuestionsTotal.WithLabelValues("comparison").Inc()
	return resolution, nil
}

// classify asks the classifier collaborator for its opinion under a bounded
// timeout. Any failure degrades to the previous-turn drug.
func (r *Resolver) classify(ctx context.Context, req Request) string {
	if r.classifier == nil {
		return ""
	}

	classifyCtx, cancel := context.WithTimeout(ctx, r.classifierTimeout)
	defer cancel()

	drug, err := r.classifier.ClassifyDrug(classifyCtx, req.Question, req.PreviousDrug, req.ChatHistory)
	if err != nil {
		metrics.ClassifierFailuresTotal.Inc()
		logging.Warn("Classifier failed, falling back to previous drug", "error", err)
		return req.PreviousDrug
	}
	return drug
}
