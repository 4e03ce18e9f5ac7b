// Package pagetext converts uploaded filings into pages of plain text.
// Every format funnels into the same []filing.Page shape so the
// structural pass downstream does not care where the text came from.
package pagetext

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// Extractor converts raw document bytes into numbered pages of plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) ([]filing.Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: true}, nil
	case ".txt":
		return &TxtExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
