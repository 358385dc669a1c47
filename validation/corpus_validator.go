// Package validation provides boundary input validation and corpus quality
// reporting for the formulary API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
)

// maxQuestionLength bounds a single question; anything longer is not a
// question a person typed.
const maxQuestionLength = 500

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: alphanumeric + accents + safe punctuation
	questionRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+,'?!%/()àâäéèêëïîôöùûüÿç]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from",
		"insert into", "--", "/*", "*/", "exec(", "execute(",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}
)

// Compile-time check to ensure CorpusValidatorImpl implements CorpusValidator
var _ interfaces.CorpusValidator = (*CorpusValidatorImpl)(nil)

// CorpusValidatorImpl implements the interfaces.CorpusValidator interface
type CorpusValidatorImpl struct{}

// NewCorpusValidator creates a new corpus validator
func NewCorpusValidator() *CorpusValidatorImpl {
	return &CorpusValidatorImpl{}
}

// ValidateQuestion rejects malformed question input at the boundary, before
// it reaches the resolver.
func (v *CorpusValidatorImpl) ValidateQuestion(question string) error {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return fmt.Errorf("question is empty")
	}

	if len(trimmed) > maxQuestionLength {
		return fmt.Errorf("question too long: %d characters (max %d)", len(trimmed), maxQuestionLength)
	}

	lowered := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("question contains disallowed pattern")
		}
	}

	if !questionRegex.MatchString(trimmed) {
		return fmt.Errorf("question contains invalid characters")
	}

	return nil
}

// CheckSectionMinimums verifies the parser invariant that no surviving
// section is shorter than its configured minimum.
func (v *CorpusValidatorImpl) CheckSectionMinimums(entries []entities.DrugEntry) error {
	for _, entry := range entries {
		for key, content := range entry.Sections {
			min := formulary.SectionMinLength(key)
			if min == 0 {
				return fmt.Errorf("unknown section key %q in entry %s", key, entry.DrugName)
			}
			if len(content) < min {
				return fmt.Errorf("section %q of entry %s below minimum: %d < %d",
					key, entry.DrugName, len(content), min)
			}
		}
	}
	return nil
}

// ReportCorpusQuality summarizes a freshly built corpus: duplicate drug
// names, entries lacking sections or metadata, and the chunk breakdown.
// Findings are logged but never fail the ingest.
func (v *CorpusValidatorImpl) ReportCorpusQuality(entries []entities.DrugEntry, chunks []entities.Chunk) *interfaces.CorpusQualityReport {
	report := &interfaces.CorpusQualityReport{}

	nameCount := make(map[string]int, len(entries))
	for _, entry := range entries {
		nameCount[formulary.NormalizeDrugName(entry.DrugName)]++

		if len(entry.Sections) == 0 {
			report.EntriesWithoutSections++
		}
		if entry.Classification == entities.ClassificationUnknown {
			report.MissingClassification++
		}
		if entry.ATCCode == "" {
			report.MissingATCCode++
		}
		if entry.PregnancyCategory == "" {
			report.MissingPregnancy++
		}
	}
	for name, count := range nameCount {
		if count > 1 {
			report.DuplicateDrugNames = append(report.DuplicateDrugNames, name)
		}
	}

	for _, chunk := range chunks {
		if chunk.Metadata.Section == "" {
			report.OverviewChunks++
		} else {
			report.SectionChunks++
		}
	}

	if len(report.DuplicateDrugNames) > 0 {
		logging.Warn("Duplicate drug names in corpus",
			"count", len(report.DuplicateDrugNames),
			"names", report.DuplicateDrugNames,
		)
	}
	if report.EntriesWithoutSections > 0 {
		logging.Warn("Entries without any qualifying section",
			"count", report.EntriesWithoutSections,
		)
	}

	return report
}
