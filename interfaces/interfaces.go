// Package interfaces defines the core abstractions of the formulary engine:
// the corpus store, the document source, and the two external collaborators
// (similarity search and drug classification).
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// CorpusQualityReport summarizes issues found in a freshly built corpus.
type CorpusQualityReport struct {
	DuplicateDrugNames     []string // normalized names appearing in more than one entry
	EntriesWithoutSections int
	MissingClassification  int
	MissingATCCode         int
	MissingPregnancy       int
	SectionChunks          int
	OverviewChunks         int
}

// CorpusStore provides thread-safe access to the parsed corpus with atomic
// full replacement on re-ingest.
type CorpusStore interface {
	GetEntries() []entities.DrugEntry
	GetChunks() []entities.Chunk
	GetDrugIndex() map[string]entities.DrugEntry
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	SetServerStartTime(t time.Time)

	UpdateCorpus(entries []entities.DrugEntry, chunks []entities.Chunk,
		drugIndex map[string]entities.DrugEntry)
	BeginUpdate() bool
	EndUpdate()
}

// DocumentSource yields the ordered raw pages of the formulary document.
type DocumentSource interface {
	Pages() ([]entities.Page, error)
}

// Searcher is the opaque similarity-search collaborator: best-first,
// best-effort, no stronger ordering guarantee.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]entities.Chunk, error)
}

// Classifier is the optional natural-language drug classifier collaborator.
// It returns the drug name the question refers to, or "" for no opinion.
// Any error must be treated by callers as no opinion, never surfaced.
type Classifier interface {
	ClassifyDrug(ctx context.Context, question, previousDrug string,
		recentHistory []entities.ChatMessage) (string, error)
}

// Scheduler manages the periodic corpus re-ingest.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health derived from corpus state.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
	CalculateNextIngest() time.Time
}

// CorpusValidator validates boundary input and reports corpus quality.
type CorpusValidator interface {
	ValidateQuestion(question string) error
	CheckSectionMinimums(entries []entities.DrugEntry) error
	ReportCorpusQuality(entries []entities.DrugEntry, chunks []entities.Chunk) *CorpusQualityReport
}

// HTTPHandler is the contract for the API endpoints.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	AskQuestion(w http.ResponseWriter, r *http.Request)
	ServePagedDrugs(w http.ResponseWriter, r *http.Request)
	FindDrug(w http.ResponseWriter, r *http.Request)
	FindDrugSection(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
