package pagetext

import (
	"strings"
	"testing"
)

func TestMarkdownExtractor_HeadingsStayLineAnchored(t *testing.T) {
	input := `# Annual Report

Opening remarks.

## Item 7. Management Discussion

Revenue grew modestly.
`
	e := &MarkdownExtractor{}
	pages, err := e.Extract(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	found := false
	for _, line := range strings.Split(pages[0].Text, "\n") {
		if line == "Item 7. Management Discussion" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the item heading on its own line, got %q", pages[0].Text)
	}
}

func TestMarkdownExtractor_ParagraphTextNotDuplicated(t *testing.T) {
	e := &MarkdownExtractor{}
	pages, err := e.Extract(strings.NewReader("Net sales were $1,200 million."), "note.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(pages[0].Text, "$1,200"); got != 1 {
		t.Errorf("expected the figure exactly once, got %d occurrences in %q", got, pages[0].Text)
	}
}

func TestMarkdownExtractor_ListItemsOnSeparateLines(t *testing.T) {
	input := "- interest rate exposure\n- foreign currency exposure\n"
	e := &MarkdownExtractor{}
	pages, err := e.Extract(strings.NewReader(input), "risks.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(pages[0].Text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), pages[0].Text)
	}
	if lines[0] != "interest rate exposure" || lines[1] != "foreign currency exposure" {
		t.Errorf("unexpected list lines: %q", lines)
	}
}

func TestMarkdownExtractor_EmptyInput(t *testing.T) {
	e := &MarkdownExtractor{}
	pages, err := e.Extract(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected a single empty page, got %d", len(pages))
	}
	if pages[0].Text != "" {
		t.Errorf("expected empty text, got %q", pages[0].Text)
	}
}
