package formulary

import (
	"fmt"
	"os"
	"strings"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

// linesPerPage is the fallback pagination for documents without form feeds.
const linesPerPage = 60

// FileSource reads the formulary document from a local file and splits it
// into ordered pages: on form-feed characters when the export carries them,
// otherwise into fixed line blocks so source ranges stay meaningful.
type FileSource struct {
	path string
}

// NewFileSource creates a document source backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Pages reads and paginates the document.
func (f *FileSource) Pages() ([]entities.Page, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formulary document %s: %w", f.path, err)
	}
	return PaginateDocument(string(raw)), nil
}

// PaginateDocument splits raw document text into indexed pages.
func PaginateDocument(text string) []entities.Page {
	var segments []string
	if strings.Contains(text, "\f") {
		segments = strings.Split(text, "\f")
	} else {
		lines := strings.Split(text, "\n")
		for start := 0; start < len(lines); start += linesPerPage {
			end := start + linesPerPage
			if end > len(lines) {
				end = len(lines)
			}
			segments = append(segments, strings.Join(lines[start:end], "\n"))
		}
	}

	pages := make([]entities.Page, 0, len(segments))
	for i, segment := range segments {
		// Blank segments keep their index but produce no page.
		if strings.TrimSpace(segment) == "" {
			continue
		}
		pages = append(pages, entities.Page{Text: segment, Index: i + 1})
	}
	return pages
}
