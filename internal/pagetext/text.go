package pagetext

import (
	"io"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// TxtExtractor handles plain text files. Form feeds separate pages, so a
// pre-paginated dump keeps its original numbering; without them the whole
// file is a single page.
type TxtExtractor struct{}

func (e *TxtExtractor) Extract(r io.Reader, _ string) ([]filing.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return pagesFromText(string(src)), nil
}

// pagesFromText splits form-feed separated text into numbered pages.
// Blank interior pages keep their slot so numbering stays aligned with
// the source. A single empty trailing element is dropped because tools
// like pdftotext terminate every page with a form feed.
func pagesFromText(text string) []filing.Page {
	parts := strings.Split(text, "\f")
	if n := len(parts); n > 1 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}
	pages := make([]filing.Page, len(parts))
	for i, part := range parts {
		pages[i] = filing.Page{Number: i + 1, Text: part}
	}
	return pages
}
