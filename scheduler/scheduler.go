// Package scheduler provides automated corpus re-ingest scheduling and
// staleness monitoring for the formulary API. It coordinates full corpus
// rebuilds with the corpus container using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pharmexa/formulary-api/data"
	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
	"github.com/pharmexa/formulary-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles corpus re-ingest and staleness monitoring using
// dependency injection
type Scheduler struct {
	corpusStore interfaces.CorpusStore
	source      interfaces.DocumentSource
	validator   interfaces.CorpusValidator
	ingestTimes string // semicolon-separated "HH:MM" list
	scheduler   *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(corpusStore interfaces.CorpusStore, source interfaces.DocumentSource,
	validator interfaces.CorpusValidator, ingestTimes string) *Scheduler {
	return &Scheduler{
		corpusStore: corpusStore,
		source:      source,
		validator:   validator,
		ingestTimes: ingestTimes,
		scheduler:   gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial ingest and schedules the recurring ones. A
// failed initial ingest is fatal; a failed recurring ingest keeps the
// previous corpus serving.
func (s *Scheduler) Start() error {
	if err := s.ingest(); err != nil {
		logging.Error("Failed to perform initial corpus ingest", "error", err)
		return fmt.Errorf("initial corpus ingest failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.ingestTimes).Do(func() {
		if err := s.ingest(); err != nil {
			logging.Error("Failed to re-ingest corpus", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule ingests", "error", err)
		return fmt.Errorf("failed to schedule ingests: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ingest rebuilds the whole corpus from the document source and swaps it
// into the container atomically. Re-ingestion fully replaces the prior
// corpus.
func (s *Scheduler) ingest() error {
	if !s.corpusStore.BeginUpdate() {
		logging.Info("Ingest already in progress, skipping...")
		return nil
	}
	defer s.corpusStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting corpus ingest at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	pages, err := s.source.Pages()
	if err != nil {
		logging.Error("Failed to read formulary document", "error", err)
		return fmt.Errorf("failed to read formulary document: %w", err)
	}

	entries, chunks := formulary.BuildCorpus(pages)

	if err := s.validator.CheckSectionMinimums(entries); err != nil {
		logging.Error("Corpus failed section minimum check", "error", err)
		return fmt.Errorf("corpus failed section minimum check: %w", err)
	}
	report := s.validator.ReportCorpusQuality(entries, chunks)

	drugIndex := data.BuildDrugIndex(entries)

	s.corpusStore.UpdateCorpus(entries, chunks, drugIndex)

	metrics.CorpusDrugs.Set(float64(len(entries)))
	metrics.CorpusChunks.Set(float64(len(chunks)))

	elapsed := time.Since(start)
	logging.Info("Corpus ingest completed",
		"duration", elapsed.String(),
		"drug_count", len(entries),
		"chunk_count", len(chunks),
		"section_chunks", report.SectionChunks,
		"overview_chunks", report.OverviewChunks,
	)

	return nil
}

// startStalenessMonitoring warns when the corpus misses an ingest window.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.corpusStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Corpus hasn't been re-ingested in over 25 hours")
			}
		}
	}()
}
