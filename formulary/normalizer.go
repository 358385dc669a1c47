// Package formulary parses a semi-structured pharmaceutical reference
// document into drug entries and converts them into retrievable chunks.
package formulary

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	drugNameCharsRe = regexp.MustCompile(`[^a-z0-9\s+\-]`)
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
)

// accentFolder strips combining marks so "Paracétamol" and "Paracetamol"
// normalize to the same name.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText collapses all whitespace runs to single spaces and trims.
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// FoldAccents removes diacritics from s. On transform failure the input is
// returned unchanged; a lossy fold is never worth failing a parse over.
func FoldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeDrugName lower-cases, folds accents, strips characters outside
// [a-z0-9 +-] and collapses whitespace. This is the comparison form used
// everywhere two drug names are matched against each other.
func NormalizeDrugName(name string) string {
	lowered := strings.ToLower(FoldAccents(name))
	cleaned := drugNameCharsRe.ReplaceAllString(lowered, " ")
	return NormalizeText(cleaned)
}

// NamesMatch reports whether two drug names refer to the same drug:
// normalized-equal, or one a substring of the other. The substring rule
// absorbs brand/strength suffixes ("amoxicillin 500mg" vs "amoxicillin").
func NamesMatch(a, b string) bool {
	na := NormalizeDrugName(a)
	nb := NormalizeDrugName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// CanonicalDrugName cleans a heading into the canonical upper-case form:
// parenthetical annotations and the classification token are removed,
// punctuation trimmed, whitespace collapsed.
func CanonicalDrugName(heading string) string {
	name := parentheticalRe.ReplaceAllString(heading, " ")
	fields := strings.Fields(name)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.Trim(f, ".,;:!?")
		if trimmed == "" {
			continue
		}
		switch strings.ToUpper(trimmed) {
		case "RX", "OTC":
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.ToUpper(NormalizeText(strings.Join(kept, " ")))
}
