package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// mockCorpusStore for testing health thresholds
type mockCorpusStore struct {
	entries     []entities.DrugEntry
	chunks      []entities.Chunk
	lastUpdated time.Time
	updating    bool
}

func (m *mockCorpusStore) GetEntries() []entities.DrugEntry { return m.entries }
func (m *mockCorpusStore) GetChunks() []entities.Chunk      { return m.chunks }
func (m *mockCorpusStore) GetDrugIndex() map[string]entities.DrugEntry {
	return make(map[string]entities.DrugEntry)
}
func (m *mockCorpusStore) GetLastUpdated() time.Time      { return m.lastUpdated }
func (m *mockCorpusStore) IsUpdating() bool               { return m.updating }
func (m *mockCorpusStore) GetServerStartTime() time.Time  { return time.Now() }
func (m *mockCorpusStore) SetServerStartTime(t time.Time) {}
func (m *mockCorpusStore) UpdateCorpus(entries []entities.DrugEntry, chunks []entities.Chunk,
	drugIndex map[string]entities.DrugEntry) {
}
func (m *mockCorpusStore) BeginUpdate() bool { return true }
func (m *mockCorpusStore) EndUpdate()        {}

func populatedStore(age time.Duration, updating bool) *mockCorpusStore {
	return &mockCorpusStore{
		entries:     []entities.DrugEntry{{DrugName: "PARACETAMOL"}},
		chunks:      []entities.Chunk{{ID: "1"}},
		lastUpdated: time.Now().Add(-age),
		updating:    updating,
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		store          *mockCorpusStore
		expectedStatus string
		expectedHTTP   int
	}{
		{
			name:           "healthy fresh corpus",
			store:          populatedStore(time.Hour, false),
			expectedStatus: "healthy",
			expectedHTTP:   http.StatusOK,
		},
		{
			name:           "empty corpus unhealthy",
			store:          &mockCorpusStore{lastUpdated: time.Now()},
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "stale corpus degraded",
			store:          populatedStore(30*time.Hour, false),
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "very stale corpus unhealthy",
			store:          populatedStore(50*time.Hour, false),
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "long running update degraded",
			store:          populatedStore(7*time.Hour, true),
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store, "06:00;18:00")
			status, data, httpStatus := checker.HealthCheck()

			if status != tt.expectedStatus {
				t.Errorf("status = %q, want %q", status, tt.expectedStatus)
			}
			if httpStatus != tt.expectedHTTP {
				t.Errorf("httpStatus = %d, want %d", httpStatus, tt.expectedHTTP)
			}
			if data == nil {
				t.Fatal("data should not be nil")
			}
			for _, key := range []string{"last_ingest", "corpus_age_hours", "drugs", "chunks", "is_updating", "next_ingest"} {
				if _, ok := data[key]; !ok {
					t.Errorf("data missing %q", key)
				}
			}
		})
	}
}

func TestCalculateNextIngest(t *testing.T) {
	checker := NewHealthChecker(populatedStore(time.Hour, false), "06:00;18:00")

	next := checker.CalculateNextIngest()
	now := time.Now()

	if !next.After(now) {
		t.Errorf("next ingest %v should be in the future", next)
	}
	if next.Sub(now) > 24*time.Hour {
		t.Errorf("next ingest %v should be within 24 hours", next)
	}

	hm := next.Format("15:04")
	if hm != "06:00" && hm != "18:00" {
		t.Errorf("next ingest should land on a scheduled slot, got %s", hm)
	}
}
