package formulary

import (
	"regexp"
	"strings"

	"github.com/pharmexa/formulary-api/formulary/entities"
	"github.com/pharmexa/formulary-api/logging"
)

// anchorWindow is how many lines after a classification marker the
// upper-case drug-name heading may appear.
const anchorWindow = 3

var (
	// classificationRe matches an entry anchor marker: an "Rx" or "OTC"
	// token opening a line, optionally followed by the heading itself.
	classificationRe = regexp.MustCompile(`^\s*(Rx|OTC)\b[.:\-\s]*(.*)$`)

	// pregnancyRe and atcRe capture the two scalar fields opportunistically
	// anywhere in the entry body, first match wins.
	pregnancyRe = regexp.MustCompile(`(?i)pregnancy\s+(?:category|cat\.?)\s*:?\s*([A-DX][0-9]?)\b`)
	atcRe       = regexp.MustCompile(`(?i)\bATC(?:\s+code)?\s*:?\s*([A-Za-z]\d{2}[A-Za-z]{2}\d{2})\b`)
)

// workingEntry accumulates one in-progress monograph during the scan.
type workingEntry struct {
	drugName       string
	classification entities.Classification
	rawLines       []string
	sections       map[entities.SectionKey][]string
	currentSection entities.SectionKey
	pregnancy      string
	atc            string
	startIndex     int
	endIndex       int
}

// ParseFormulary splits the ordered raw pages into drug entries. A document
// with no anchors yields zero entries; a trailing open entry is finalized at
// end of input. Entries sharing a drug name are not merged here.
func ParseFormulary(pages []entities.Page) []entities.DrugEntry {
	var entries []entities.DrugEntry
	var current *workingEntry

	droppedSections := 0
	discardedEntries := 0

	finalize := func() {
		if current == nil {
			return
		}
		entry, dropped, ok := current.finalize()
		droppedSections += dropped
		if ok {
			entries = append(entries, entry)
		} else {
			discardedEntries++
		}
		current = nil
	}

	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		for i := 0; i < len(lines); i++ {
			line := lines[i]

			if class, heading, skip, ok := detectAnchor(lines, i); ok {
				finalize()
				current = &workingEntry{
					drugName:       CanonicalDrugName(heading),
					classification: class,
					sections:       make(map[entities.SectionKey][]string),
					startIndex:     page.Index,
					endIndex:       page.Index,
				}
				i += skip
				continue
			}

			if current == nil {
				continue
			}
			current.endIndex = page.Index
			current.consume(line)
		}
	}
	finalize()

	if droppedSections > 0 || discardedEntries > 0 {
		logging.Info("Formulary parse skip statistics",
			"dropped_sections", droppedSections,
			"discarded_entries", discardedEntries,
			"entries_parsed", len(entries))
	}

	return entries
}

// BuildCorpus is the ingest boundary: pages in, entries and chunks out.
// Re-ingestion fully replaces the prior corpus.
func BuildCorpus(pages []entities.Page) ([]entities.DrugEntry, []entities.Chunk) {
	entries := ParseFormulary(pages)
	return entries, BuildChunks(entries)
}

// detectAnchor tests whether lines[i] starts an entry: a classification
// marker with the drug-name heading either on the same line or within the
// next few lines. It returns the classification, the heading text, and how
// many extra lines the anchor consumed.
func detectAnchor(lines []string, i int) (entities.Classification, string, int, bool) {
	m := classificationRe.FindStringSubmatch(lines[i])
	if m == nil {
		return "", "", 0, false
	}

	class := entities.Classification(m[1])

	if rest := strings.TrimSpace(m[2]); rest != "" {
		if isDrugHeading(rest) {
			return class, rest, 0, true
		}
		// Marker followed by non-heading content is not an anchor
		// ("Rx only" footers, prose mentioning Rx).
		return "", "", 0, false
	}

	for offset := 1; offset <= anchorWindow && i+offset < len(lines); offset++ {
		candidate := strings.TrimSpace(lines[i+offset])
		if candidate == "" {
			continue
		}
		if isDrugHeading(candidate) {
			return class, candidate, offset, true
		}
		break
	}
	return "", "", 0, false
}

// isDrugHeading recognizes an upper-case drug-name heading line: mostly
// upper-case letters, short, and not itself a section heading.
func isDrugHeading(line string) bool {
	stripped := parentheticalRe.ReplaceAllString(line, " ")
	stripped = NormalizeText(stripped)
	if len(stripped) < 3 || len(stripped) > 60 {
		return false
	}
	if _, _, ok := matchSectionHeading(stripped); ok {
		return false
	}

	letters := 0
	upper := 0
	for _, r := range stripped {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			upper++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	if letters < 3 {
		return false
	}
	return upper*100 >= letters*85
}

// consume appends one body line to the working entry, tracking section
// boundaries and the two opportunistic scalar captures.
func (w *workingEntry) consume(line string) {
	w.rawLines = append(w.rawLines, line)

	if w.pregnancy == "" {
		if m := pregnancyRe.FindStringSubmatch(line); m != nil {
			w.pregnancy = strings.ToUpper(m[1])
		}
	}
	if w.atc == "" {
		if m := atcRe.FindStringSubmatch(line); m != nil {
			w.atc = strings.ToUpper(m[1])
		}
	}

	if key, rest, ok := matchSectionHeading(line); ok {
		w.currentSection = key
		if rest != "" {
			w.sections[key] = append(w.sections[key], rest)
		}
		return
	}

	if w.currentSection != "" {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			w.sections[w.currentSection] = append(w.sections[w.currentSection], trimmed)
		}
	}
}

// finalize normalizes the accumulated buffers, applies the per-section
// minimum lengths, and decides whether the entry survives at all. The
// dropped count is the number of section buffers rejected as too short.
func (w *workingEntry) finalize() (entities.DrugEntry, int, bool) {
	raw := strings.Join(w.rawLines, "\n")
	normalized := NormalizeText(raw)

	sections := make(map[entities.SectionKey]string)
	dropped := 0
	for key, parts := range w.sections {
		text := NormalizeText(strings.Join(parts, " "))
		if len(text) < sectionMinLength[key] {
			dropped++
			continue
		}
		sections[key] = text
	}

	hasMetadata := w.pregnancy != "" || w.atc != ""
	if len(sections) == 0 && !hasMetadata && len(normalized) < minEntryContent {
		return entities.DrugEntry{}, dropped, false
	}
	if w.drugName == "" {
		return entities.DrugEntry{}, dropped, false
	}

	return entities.DrugEntry{
		DrugName:          w.drugName,
		Classification:    w.classification,
		RawContent:        raw,
		NormalizedContent: normalized,
		Sections:          sections,
		PregnancyCategory: w.pregnancy,
		ATCCode:           w.atc,
		SourceRange:       entities.SourceRange{Start: w.startIndex, End: w.endIndex},
	}, dropped, true
}
