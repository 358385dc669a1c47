// Package resolve turns a question, its conversation history, and an
// optional classifier opinion into a single validated drug (or a drug pair
// for comparison questions) and the retrieval results supporting it.
package resolve

import (
	"regexp"
	"strings"

	"github.com/pharmexa/formulary-api/formulary"
)

// maxHintWords caps an extracted candidate so a trigger phrase swallowing
// the rest of the sentence still yields a plausible drug name.
const maxHintWords = 4

// triggerPatterns are tried in order; the first capture wins. Longer,
// more specific phrasings come before their prefixes.
var triggerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btell me (?:more )?about\s+(.+)`),
	regexp.MustCompile(`(?i)\binformation (?:on|about|regarding)\s+(.+)`),
	regexp.MustCompile(`(?i)\bwhat about\s+(.+)`),
	regexp.MustCompile(`(?i)\bhow about\s+(.+)`),
	regexp.MustCompile(`(?i)\babout\s+(.+)`),
	regexp.MustCompile(`(?i)\bregarding\s+(.+)`),
	regexp.MustCompile(`(?i)\bconcerning\s+(.+)`),
	regexp.MustCompile(`(?i)\b(?:can|may) i take\s+(.+)`),
	regexp.MustCompile(`(?i)\bis\s+(.+?)\s+safe\b`),
	regexp.MustCompile(`(?i)\bdoes\s+(.+?)\s+(?:have|cause|interact)\b`),
}

// comparisonPatterns each capture a pair of drug names. They are checked
// before single-drug extraction so "A vs B" never collapses to one name.
var comparisonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdifference between\s+(.+?)\s+and\s+(.+)`),
	regexp.MustCompile(`(?i)\bcompare\s+(.+?)\s+(?:and|with|to|vs\.?|versus)\s+(.+)`),
	regexp.MustCompile(`(?i)\b(.+?)\s+(?:vs\.?|versus)\s+(.+)`),
	regexp.MustCompile(`(?i)\b(.+?)\s+and\s+(.+?)\s+comparison\b`),
	regexp.MustCompile(`(?i)\bwhich is (?:better|safer|stronger)[,:]?\s+(.+?)\s+or\s+(.+)`),
}

// ExtractDrugHint proposes a candidate drug name from one free-text line.
// It returns "" when no trigger phrase matches or the captured span is a
// formulary topic rather than a drug name.
func ExtractDrugHint(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	for _, pattern := range triggerPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if candidate := cleanCandidate(match[1]); candidate != "" {
			return candidate
		}
	}
	return ""
}

// DetectComparison reports the two drug names of a comparison question, or
// ok=false when the question is not a comparison or either side is a
// stop term.
func DetectComparison(text string) (first, second string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}

	for _, pattern := range comparisonPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		first = cleanCandidate(match[1])
		second = cleanCandidate(match[2])
		if first != "" && second != "" {
			return first, second, true
		}
	}
	return "", "", false
}

// IsFollowUp reports whether a question is grammatically dependent on
// prior context: it opens with an interrogative word, or consists solely
// of a bare formulary topic like "dosage?".
func IsFollowUp(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	normalized := formulary.NormalizeDrugName(strings.TrimRight(trimmed, "?!."))
	if _, ok := stopTerms[normalized]; ok {
		return true
	}

	words := strings.Fields(strings.ToLower(trimmed))
	if len(words) == 0 {
		return false
	}
	_, ok := interrogativeOpeners[strings.Trim(words[0], ",")]
	return ok
}

// cleanCandidate strips trailing punctuation and leading filler
// determiners from a captured span, truncates it to maxHintWords, and
// rejects it when the result is a stop term.
func cleanCandidate(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimRight(cleaned, "?!.,;:")
	if cleaned == "" {
		return ""
	}

	words := strings.Fields(cleaned)
	for len(words) > 0 {
		if _, filler := fillerDeterminers[strings.ToLower(words[0])]; !filler {
			break
		}
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	if len(words) > maxHintWords {
		words = words[:maxHintWords]
	}

	candidate := strings.Join(words, " ")
	if isStopTerm(candidate) {
		return ""
	}
	return candidate
}

func isStopTerm(candidate string) bool {
	normalized := formulary.NormalizeDrugName(candidate)
	if normalized == "" {
		return true
	}
	if _, ok := stopTerms[normalized]; ok {
		return true
	}

	// Check again with filler determiners removed, so "the dosage" is
	// rejected even when the determiner survived capture.
	words := strings.Fields(normalized)
	for len(words) > 0 {
		if _, filler := fillerDeterminers[words[0]]; !filler {
			break
		}
		words = words[1:]
	}
	stripped := strings.Join(words, " ")
	if stripped == "" {
		return true
	}
	_, ok := stopTerms[stripped]
	return ok
}

// HeuristicDrug is the single-question heuristic: extraction first, and
// only when it yields nothing does follow-up detection carry the previous
// drug forward. "What about Ibuprofen?" therefore extracts Ibuprofen even
// though it opens with an interrogative.
func HeuristicDrug(question, previousDrug string) string {
	if hint := ExtractDrugHint(question); hint != "" {
		return hint
	}
	if previousDrug != "" && IsFollowUp(question) {
		return previousDrug
	}
	return ""
}
