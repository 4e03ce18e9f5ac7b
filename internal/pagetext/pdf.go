package pagetext

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF files. It tries the Go library first and can
// fall back to pdftotext when the whole document yields no text.
type PDFExtractor struct {
	FallbackPdftotext bool
}

func (e *PDFExtractor) Extract(r io.Reader, filename string) ([]filing.Page, error) {
	// ledongthuc/pdf requires a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "filingsift-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if e.FallbackPdftotext && (err != nil || !pagesHaveText(pages)) {
		if alt, altErr := extractPdftotext(tmpPath); altErr == nil && pagesHaveText(alt) {
			return alt, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return pages, nil
}

func extractPDFPages(path string) ([]filing.Page, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]filing.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}
		// A page that fails extraction keeps its slot as empty text so
		// numbering stays aligned with the printed document.
		pages = append(pages, filing.Page{Number: i, Text: text})
	}
	return pages, nil
}

func extractPdftotext(path string) ([]filing.Page, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return pagesFromText(string(out)), nil
}

func pagesHaveText(pages []filing.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
