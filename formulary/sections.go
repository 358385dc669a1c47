package formulary

import (
	"strings"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// sectionHeading maps one surface-form heading to its canonical key.
// Surface forms are matched case-insensitively at the start of a line;
// longer forms must come before their prefixes ("dosage and administration"
// before "dosage") so the most specific heading wins.
type sectionHeading struct {
	surface string
	key     entities.SectionKey
}

var sectionHeadings = []sectionHeading{
	{"dosage and administration", entities.SectionDosage},
	{"dose adjustment", entities.SectionDoseAdjustment},
	{"dosage adjustment", entities.SectionDoseAdjustment},
	{"dose adjustments", entities.SectionDoseAdjustment},
	{"therapeutic indications", entities.SectionIndications},
	{"indications", entities.SectionIndications},
	{"indication", entities.SectionIndications},
	{"uses", entities.SectionIndications},
	{"contraindications", entities.SectionContraindications},
	{"contra-indications", entities.SectionContraindications},
	{"contraindication", entities.SectionContraindications},
	{"dosage", entities.SectionDosage},
	{"dose", entities.SectionDosage},
	{"special precautions", entities.SectionPrecautions},
	{"warnings and precautions", entities.SectionPrecautions},
	{"precautions", entities.SectionPrecautions},
	{"warnings", entities.SectionPrecautions},
	{"adverse reactions", entities.SectionAdverseReactions},
	{"adverse effects", entities.SectionAdverseReactions},
	{"side effects", entities.SectionAdverseReactions},
	{"undesirable effects", entities.SectionAdverseReactions},
	{"drug interactions", entities.SectionDrugInteractions},
	{"interactions", entities.SectionDrugInteractions},
	{"method of administration", entities.SectionAdministration},
	{"mode of administration", entities.SectionAdministration},
	{"administration", entities.SectionAdministration},
	{"formulations", entities.SectionFormulations},
	{"presentations", entities.SectionFormulations},
	{"dosage forms", entities.SectionFormulations},
	{"available as", entities.SectionFormulations},
}

// sectionMinLength is the per-section minimum normalized length an extracted
// buffer must reach to survive finalization. Terse fields get a lower bar
// than prose fields; anything shorter is a heading-only false positive.
var sectionMinLength = map[entities.SectionKey]int{
	entities.SectionIndications:       20,
	entities.SectionContraindications: 20,
	entities.SectionDosage:            10,
	entities.SectionDoseAdjustment:    10,
	entities.SectionPrecautions:       20,
	entities.SectionAdverseReactions:  20,
	entities.SectionDrugInteractions:  20,
	entities.SectionAdministration:    10,
	entities.SectionFormulations:      10,
}

// SectionMinLength returns the minimum normalized length a section must
// reach to be kept, or 0 for an unknown key.
func SectionMinLength(key entities.SectionKey) int {
	return sectionMinLength[key]
}

// minEntryContent is the global floor: an entry with no qualifying sections
// and no metadata must carry at least this much normalized content or it is
// discarded as running-header/table-of-contents noise.
const minEntryContent = 120

// matchSectionHeading tests whether line opens with a known section heading.
// It returns the canonical key and any content trailing the heading on the
// same line. A heading may be followed by ':', '-' or the content directly.
func matchSectionHeading(line string) (entities.SectionKey, string, bool) {
	normalized := NormalizeText(line)
	lowered := strings.ToLower(normalized)
	if lowered == "" {
		return "", "", false
	}

	for _, h := range sectionHeadings {
		if !strings.HasPrefix(lowered, h.surface) {
			continue
		}
		// The heading must end at a word boundary; "doses" must not match
		// the "dose" heading.
		if len(lowered) > len(h.surface) && isWordRune(rune(lowered[len(h.surface)])) {
			continue
		}
		rest := strings.TrimLeft(normalized[len(h.surface):], ":-– \t")
		return h.key, strings.TrimSpace(rest), true
	}
	return "", "", false
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
