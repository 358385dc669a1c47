package formulary

import (
	"github.com/google/uuid"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// BuildChunks converts entries into a flat chunk list: one overview chunk
// per entry (skipped when the entry has no content) plus one chunk per
// populated section in canonical key order. Ids are fresh per build;
// rebuilding the corpus invalidates all previous chunk ids.
func BuildChunks(entries []entities.DrugEntry) []entities.Chunk {
	var chunks []entities.Chunk

	for _, entry := range entries {
		meta := entities.ChunkMetadata{
			DrugName:          entry.DrugName,
			SourceRange:       entry.SourceRange,
			PregnancyCategory: entry.PregnancyCategory,
			ATCCode:           entry.ATCCode,
			Classification:    entry.Classification,
		}

		if entry.NormalizedContent != "" {
			chunks = append(chunks, entities.Chunk{
				ID:       uuid.NewString(),
				Content:  entry.NormalizedContent,
				Metadata: meta,
			})
		}

		for _, key := range entities.AllSectionKeys() {
			text, ok := entry.Sections[key]
			if !ok {
				continue
			}
			sectionMeta := meta
			sectionMeta.Section = key
			chunks = append(chunks, entities.Chunk{
				ID:       uuid.NewString(),
				Content:  text,
				Metadata: sectionMeta,
			})
		}
	}

	return chunks
}
