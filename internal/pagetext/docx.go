package pagetext

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Word documents carry no printed
// pagination, so the whole document becomes one page with paragraphs and
// table rows as lines.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(r io.Reader, filename string) ([]filing.Page, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "filingsift-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if t := docxParagraphText(it); t != "" {
				lines = append(lines, t)
			}
		case *docx.Table:
			lines = append(lines, docxTableLines(it)...)
		}
	}

	return []filing.Page{{Number: 1, Text: strings.Join(lines, "\n")}}, nil
}

// docxTableLines flattens a table to one line per row, cells separated by
// a double space so numeric columns stay distinguishable.
func docxTableLines(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			if len(parts) > 0 {
				cells = append(cells, strings.Join(parts, " "))
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "  "))
		}
	}
	return lines
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
