package entities

// Classification is the dispensing class of a formulary entry.
type Classification string

const (
	ClassificationRx      Classification = "Rx"
	ClassificationOTC     Classification = "OTC"
	ClassificationUnknown Classification = "Unknown"
)

// SectionKey identifies one canonical monograph section.
type SectionKey string

const (
	SectionIndications       SectionKey = "indications"
	SectionContraindications SectionKey = "contraindications"
	SectionDosage            SectionKey = "dosage"
	SectionDoseAdjustment    SectionKey = "doseAdjustment"
	SectionPrecautions       SectionKey = "precautions"
	SectionAdverseReactions  SectionKey = "adverseReactions"
	SectionDrugInteractions  SectionKey = "drugInteractions"
	SectionAdministration    SectionKey = "administration"
	SectionFormulations      SectionKey = "formulations"
)

// AllSectionKeys returns the closed set of section keys in canonical order.
// Chunk emission iterates this slice so builds are deterministic.
func AllSectionKeys() []SectionKey {
	return []SectionKey{
		SectionIndications,
		SectionContraindications,
		SectionDosage,
		SectionDoseAdjustment,
		SectionPrecautions,
		SectionAdverseReactions,
		SectionDrugInteractions,
		SectionAdministration,
		SectionFormulations,
	}
}

// SourceRange is the page (or entry index) span an entry was extracted from.
type SourceRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Page is one raw text segment of the source document, tagged with its index.
type Page struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// DrugEntry is one monograph extracted from the formulary document.
type DrugEntry struct {
	DrugName          string                `json:"drugName"`
	Classification    Classification        `json:"classification"`
	RawContent        string                `json:"rawContent"`
	NormalizedContent string                `json:"normalizedContent"`
	Sections          map[SectionKey]string `json:"sections"`
	PregnancyCategory string                `json:"pregnancyCategory,omitempty"`
	ATCCode           string                `json:"atcCode,omitempty"`
	SourceRange       SourceRange           `json:"sourceRange"`
}
