// Package health derives service health from the state of the corpus.
package health

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pharmexa/formulary-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	corpusStore interfaces.CorpusStore
	ingestTimes []string // "HH:MM", ascending
}

// NewHealthChecker creates a health checker over the corpus store.
// ingestTimes is the semicolon-separated daily schedule, e.g. "06:00;18:00".
func NewHealthChecker(corpusStore interfaces.CorpusStore, ingestTimes string) *HealthCheckerImpl {
	times := strings.Split(ingestTimes, ";")
	for i, t := range times {
		times[i] = strings.TrimSpace(t)
	}
	sort.Strings(times)
	return &HealthCheckerImpl{
		corpusStore: corpusStore,
		ingestTimes: times,
	}
}

// HealthCheck returns the service status and the corpus statistics behind
// it. An empty corpus or one older than two ingest windows is unhealthy;
// a corpus past one window, or a long-running update, is degraded.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	entries := h.corpusStore.GetEntries()
	chunks := h.corpusStore.GetChunks()
	lastUpdate := h.corpusStore.GetLastUpdated()
	isUpdating := h.corpusStore.IsUpdating()

	corpusAge := time.Since(lastUpdate)

	switch {
	case len(entries) == 0 || len(chunks) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case corpusAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case corpusAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && corpusAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_ingest":      lastUpdate.Format(time.RFC3339),
		"corpus_age_hours": math.Round(corpusAge.Hours()*10) / 10,
		"drugs":            len(entries),
		"chunks":           len(chunks),
		"is_updating":      isUpdating,
		"next_ingest":      h.CalculateNextIngest().Format(time.RFC3339),
	}

	return status, data, httpStatus
}

// CalculateNextIngest returns the next scheduled ingest time, derived from
// the configured daily HH:MM slots.
func (h *HealthCheckerImpl) CalculateNextIngest() time.Time {
	now := time.Now()

	var slots []time.Time
	for _, hhmm := range h.ingestTimes {
		t, err := time.Parse("15:04", hhmm)
		if err != nil {
			continue
		}
		slots = append(slots,
			time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()))
	}
	if len(slots) == 0 {
		return now.AddDate(0, 0, 1)
	}

	for _, slot := range slots {
		if now.Before(slot) {
			return slot
		}
	}
	// All of today's slots have passed; wrap to the first slot tomorrow.
	return slots[0].AddDate(0, 0, 1)
}
