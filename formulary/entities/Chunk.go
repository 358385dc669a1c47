package entities

// ChunkMetadata carries the entry-level fields a chunk inherits, plus the
// section key for section chunks (empty for the overview chunk).
type ChunkMetadata struct {
	DrugName          string         `json:"drugName"`
	Section           SectionKey     `json:"section,omitempty"`
	SourceRange       SourceRange    `json:"sourceRange"`
	PregnancyCategory string         `json:"pregnancyCategory,omitempty"`
	ATCCode           string         `json:"atcCode,omitempty"`
	Classification    Classification `json:"classification"`
}

// Chunk is one retrievable unit derived from a DrugEntry. Chunks are
// immutable once built; ids are only stable within a single corpus build.
type Chunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChatMessage is one turn of conversation history at the question boundary.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
