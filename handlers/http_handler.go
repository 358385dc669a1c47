// Package handlers provides HTTP request handlers for the formulary API
// endpoints: question answering, drug lookup, pagination, and health checks,
// with input validation and consistent JSON error responses.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmexa/formulary-api/cache"
	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
	"github.com/pharmexa/formulary-api/metrics"
	"github.com/pharmexa/formulary-api/resolve"
)

const drugsPageSize = 10

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	corpusStore   interfaces.CorpusStore
	validator     interfaces.CorpusValidator
	healthChecker interfaces.HealthChecker
	resolver      *resolve.Resolver
	responseCache *cache.ResponseCache
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	corpusStore interfaces.CorpusStore,
	validator interfaces.CorpusValidator,
	healthChecker interfaces.HealthChecker,
	resolver *resolve.Resolver,
	responseCache *cache.ResponseCache,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		corpusStore:   corpusStore,
		validator:     validator,
		healthChecker: healthChecker,
		resolver:      resolver,
		responseCache: responseCache,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Routing is handled by chi; this satisfies http.Handler only.
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// askRequest is the question-answering boundary payload.
type askRequest struct {
	Question     string                 `json:"question"`
	Drug         string                 `json:"drug,omitempty"`
	ChatHistory  []entities.ChatMessage `json:"chatHistory,omitempty"`
	PreviousDrug string                 `json:"previousDrug,omitempty"`
}

// askResponse is the hand-off to the answer-composition step.
type askResponse struct {
	ValidatedDrug   string           `json:"validatedDrug,omitempty"`
	ComparisonDrugs []string         `json:"comparisonDrugs,omitempty"`
	Chunks          []entities.Chunk `json:"chunks"`
	CacheHit        bool             `json:"cacheHit"`
}

// AskQuestion resolves the drug context of one question and returns the
// ranked chunks supporting an answer.
func (h *HTTPHandlerImpl) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		if errors.Is(err, io.EOF) {
			h.RespondWithError(w, http.StatusBadRequest, "Empty request body")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if err := h.validator.ValidateQuestion(req.Question); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An explicit drug in the request is the client stating which drug the
	// question is about; it takes the previous-drug slot in the candidate
	// chain and still has to validate against retrieval.
	contextDrug := req.Drug
	if contextDrug == "" {
		contextDrug = req.PreviousDrug
	}

	if payload, ok := h.responseCache.Get(req.Question, contextDrug); ok {
		metrics.CacheHitsTotal.Inc()
		h.RespondWithJSON(w, http.StatusOK, askResponse{
			ValidatedDrug:   payload.ValidatedDrug,
			ComparisonDrugs: payload.RelatedDrugs,
			Chunks:          payload.Chunks,
			CacheHit:        true,
		})
		return
	}
	metrics.CacheMissesTotal.Inc()

	resolution, err := h.resolver.Resolve(r.Context(), resolve.Request{
		Question:     req.Question,
		ChatHistory:  req.ChatHistory,
		PreviousDrug: contextDrug,
	})
	if err != nil {
		logging.Error("Question resolution failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve question")
		return
	}

	h.responseCache.Put(req.Question, contextDrug, resolution.ValidatedDrug, cache.Payload{
		ValidatedDrug: resolution.ValidatedDrug,
		Chunks:        resolution.Chunks,
		RelatedDrugs:  resolution.ComparisonDrugs,
	})

	h.RespondWithJSON(w, http.StatusOK, askResponse{
		ValidatedDrug:   resolution.ValidatedDrug,
		ComparisonDrugs: resolution.ComparisonDrugs,
		Chunks:          resolution.Chunks,
		CacheHit:        false,
	})
}

// ServePagedDrugs returns paginated drug entries
func (h *HTTPHandlerImpl) ServePagedDrugs(w http.ResponseWriter, r *http.Request) {
	pageNumber := chi.URLParam(r, "pageNumber")
	page, err := strconv.Atoi(pageNumber)
	if err != nil || page < 1 {
		logging.Warn("Unusual user input", "pageNumber", pageNumber)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	entries := h.corpusStore.GetEntries()
	start := (page - 1) * drugsPageSize
	end := start + drugsPageSize

	if start >= len(entries) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}
	if end > len(entries) {
		end = len(entries)
	}

	totalItems := len(entries)
	maxPage := (totalItems + drugsPageSize - 1) / drugsPageSize

	response := map[string]any{
		"data":       entries[start:end],
		"page":       page,
		"pageSize":   drugsPageSize,
		"totalItems": totalItems,
		"maxPage":    maxPage,
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// FindDrug searches for drug entries by name (case-insensitive partial match)
func (h *HTTPHandlerImpl) FindDrug(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing drug name")
		return
	}

	normalized := formulary.NormalizeDrugName(name)
	if normalized == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid drug name")
		return
	}

	var results []entities.DrugEntry
	for _, entry := range h.corpusStore.GetEntries() {
		if strings.Contains(formulary.NormalizeDrugName(entry.DrugName), normalized) {
			results = append(results, entry)
		}
	}

	if len(results) == 0 {
		h.RespondWithError(w, http.StatusNotFound, "No drugs found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, results)
}

// FindDrugSection returns one section of one drug entry
func (h *HTTPHandlerImpl) FindDrugSection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	section := entities.SectionKey(chi.URLParam(r, "section"))

	if formulary.SectionMinLength(section) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown section: %s", section))
		return
	}

	entry, exists := h.corpusStore.GetDrugIndex()[formulary.NormalizeDrugName(name)]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Drug not found")
		return
	}

	content, exists := entry.Sections[section]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound,
			fmt.Sprintf("Drug %s has no %s section", entry.DrugName, section))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"drugName":       entry.DrugName,
		"classification": entry.Classification,
		"section":        section,
		"content":        content,
	})
}

// HealthCheck returns service health derived from corpus state plus a few
// process statistics.
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	uptime := time.Since(h.corpusStore.GetServerStartTime())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := map[string]any{
		"status":         status,
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   formatUptimeHuman(uptime),
		"data":           data,
		"system": map[string]any{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": memStats.Alloc / 1024 / 1024,
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
