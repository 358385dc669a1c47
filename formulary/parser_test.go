package formulary

import (
	"reflect"
	"testing"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

const sampleFormulary = `Rx
AMOXICILLIN (Amoxil)
Indications: Treatment of susceptible bacterial infections including otitis media, sinusitis and pneumonia.
Contraindications: Hypersensitivity to penicillins or to any component of the formulation.
Dosage: 500 mg every 8 hours for 7 to 10 days.
Pregnancy category: B
ATC code: J01CA04

OTC
PARACETAMOL
Uses: Relief of mild to moderate pain and fever in adults and children over 12 years.
Dosage: 500 mg to 1 g every 4 to 6 hours, maximum 4 g daily.
Side Effects: Rare at therapeutic doses; hepatotoxicity has been reported following overdose.
Pregnancy cat: A
`

func samplePages() []entities.Page {
	return []entities.Page{{Text: sampleFormulary, Index: 1}}
}

func TestParseFormulary(t *testing.T) {
	entries := ParseFormulary(samplePages())

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	amox := entries[0]
	if amox.DrugName != "AMOXICILLIN" {
		t.Errorf("expected AMOXICILLIN, got %q", amox.DrugName)
	}
	if amox.Classification != entities.ClassificationRx {
		t.Errorf("expected Rx classification, got %q", amox.Classification)
	}
	if amox.PregnancyCategory != "B" {
		t.Errorf("expected pregnancy category B, got %q", amox.PregnancyCategory)
	}
	if amox.ATCCode != "J01CA04" {
		t.Errorf("expected ATC J01CA04, got %q", amox.ATCCode)
	}
	for _, key := range []entities.SectionKey{
		entities.SectionIndications,
		entities.SectionContraindications,
		entities.SectionDosage,
	} {
		if _, ok := amox.Sections[key]; !ok {
			t.Errorf("expected section %q to be populated", key)
		}
	}

	para := entries[1]
	if para.DrugName != "PARACETAMOL" {
		t.Errorf("expected PARACETAMOL, got %q", para.DrugName)
	}
	if para.Classification != entities.ClassificationOTC {
		t.Errorf("expected OTC classification, got %q", para.Classification)
	}
	if para.PregnancyCategory != "A" {
		t.Errorf("expected pregnancy category A, got %q", para.PregnancyCategory)
	}
	if _, ok := para.Sections[entities.SectionAdverseReactions]; !ok {
		t.Error("expected Side Effects to map to the adverseReactions section")
	}
	if _, ok := para.Sections[entities.SectionIndications]; !ok {
		t.Error("expected Uses to map to the indications section")
	}
}

func TestParseFormularyIdempotent(t *testing.T) {
	first := ParseFormulary(samplePages())
	second := ParseFormulary(samplePages())

	if !reflect.DeepEqual(first, second) {
		t.Error("parsing the same document twice should yield identical entries")
	}
}

func TestParseFormularySectionMinimums(t *testing.T) {
	doc := `Rx
KETOPROFEN
Indications: Pain.
Dosage: 100 mg twice daily with food and a full glass of water.
Pregnancy category: C
`
	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 1}})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if _, ok := entry.Sections[entities.SectionIndications]; ok {
		t.Error("heading-only indications buffer should be dropped as too short")
	}
	if _, ok := entry.Sections[entities.SectionDosage]; !ok {
		t.Error("qualifying dosage section should survive")
	}

	for key, content := range entry.Sections {
		if len(content) < SectionMinLength(key) {
			t.Errorf("section %q shorter than its minimum: %d < %d",
				key, len(content), SectionMinLength(key))
		}
	}
}

func TestParseFormularyNoAnchors(t *testing.T) {
	doc := `Table of contents
Chapter 1: Antibiotics
Chapter 2: Analgesics
This document mentions Rx status in running prose without headings.
`
	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 1}})
	if len(entries) != 0 {
		t.Errorf("document without anchors should yield zero entries, got %d", len(entries))
	}
}

func TestParseFormularyDiscardsNoise(t *testing.T) {
	// Anchor followed by almost nothing: no sections, no metadata, below the
	// global content floor.
	doc := `Rx
ASPIRIN
page 12
`
	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 1}})
	if len(entries) != 0 {
		t.Errorf("noise entry should be discarded, got %d entries", len(entries))
	}
}

func TestParseFormularyTrailingEntryFinalized(t *testing.T) {
	doc := `OTC
IBUPROFEN
Uses: Relief of pain, fever and inflammation in adults and adolescents.
Dosage: 200 to 400 mg every 4 to 6 hours as needed.`

	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 3}})
	if len(entries) != 1 {
		t.Fatalf("trailing open entry should be finalized, got %d entries", len(entries))
	}
	if entries[0].SourceRange.Start != 3 || entries[0].SourceRange.End != 3 {
		t.Errorf("unexpected source range: %+v", entries[0].SourceRange)
	}
}

func TestParseFormularyAnchorWithinWindow(t *testing.T) {
	// Marker and heading separated by a blank line.
	doc := `Rx

NAPROXEN
Indications: Rheumatoid arthritis, osteoarthritis and ankylosing spondylitis.
Dosage: 250 to 500 mg twice daily.
`
	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 1}})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].DrugName != "NAPROXEN" {
		t.Errorf("expected NAPROXEN, got %q", entries[0].DrugName)
	}
}

func TestParseFormularyRejectsRxOnlyProse(t *testing.T) {
	doc := `Rx only. Keep out of reach of children.
Store below 25 degrees in a dry place away from direct sunlight.
`
	entries := ParseFormulary([]entities.Page{{Text: doc, Index: 1}})
	if len(entries) != 0 {
		t.Errorf("prose starting with Rx should not anchor an entry, got %d", len(entries))
	}
}

func TestBuildChunks(t *testing.T) {
	entries := ParseFormulary(samplePages())
	chunks := BuildChunks(entries)

	// Each entry has an overview chunk plus one per populated section.
	expected := 0
	for _, entry := range entries {
		expected += 1 + len(entry.Sections)
	}
	if len(chunks) != expected {
		t.Fatalf("expected %d chunks, got %d", expected, len(chunks))
	}

	seen := make(map[string]struct{})
	for _, chunk := range chunks {
		if chunk.ID == "" {
			t.Error("chunk id should not be empty")
		}
		if _, dup := seen[chunk.ID]; dup {
			t.Errorf("duplicate chunk id %q", chunk.ID)
		}
		seen[chunk.ID] = struct{}{}

		if chunk.Metadata.DrugName == "" {
			t.Error("chunk should inherit the entry drug name")
		}
		if chunk.Content == "" {
			t.Error("chunk content should not be empty")
		}
	}

	// Overview chunk carries no section key.
	if chunks[0].Metadata.Section != "" {
		t.Errorf("first chunk should be the overview, got section %q", chunks[0].Metadata.Section)
	}
	if chunks[0].Metadata.Classification != entities.ClassificationRx {
		t.Errorf("overview chunk should inherit classification, got %q", chunks[0].Metadata.Classification)
	}
}

func TestPaginateDocument(t *testing.T) {
	t.Run("form feed separated", func(t *testing.T) {
		pages := PaginateDocument("first page\fsecond page")
		if len(pages) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(pages))
		}
		if pages[0].Index != 1 || pages[1].Index != 2 {
			t.Errorf("pages should be 1-indexed: %+v", pages)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		if pages := PaginateDocument(""); len(pages) != 0 {
			t.Errorf("empty document should yield no pages, got %d", len(pages))
		}
	})
}
