package parse

import (
	"fmt"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

type span struct {
	Item      string
	Title     string
	StartPage int
	EndPage   int
}

// spansFromAnchors turns anchors into page spans: each runs from its
// anchor page through the page before the next anchor, the last one to
// lastPage. Ends are clamped so no span inverts.
func spansFromAnchors(anchors []filing.Anchor, lastPage int) []span {
	spans := make([]span, 0, len(anchors))
	for i, a := range anchors {
		end := lastPage
		if i+1 < len(anchors) {
			end = anchors[i+1].Page - 1
		}
		if end < a.Page {
			end = a.Page
		}
		spans = append(spans, span{
			Item:      a.Item,
			Title:     fmt.Sprintf("Item %s. %s", a.Item, a.Title),
			StartPage: a.Page,
			EndPage:   end,
		})
	}
	return spans
}

// SliceSections builds sections from anchors with per-page content. With
// no anchors it falls back to a single "Document" section previewing the
// first pages. Pages that are blank after trimming are dropped from
// anchored sections, and sections with no surviving content are dropped
// entirely.
func SliceSections(pages []filing.Page, anchors []filing.Anchor, cfg SectionConfig) []filing.Section {
	if len(anchors) == 0 {
		preview := pages
		if len(preview) > cfg.PreviewPages {
			preview = preview[:cfg.PreviewPages]
		}
		content := make([]filing.PageContent, 0, len(preview))
		for _, p := range preview {
			content = append(content, filing.PageContent{
				Page:    p.Number,
				Snippet: clipRunes(p.Text, cfg.SnippetLen),
			})
		}
		end := 1
		if len(pages) > 0 {
			end = pages[len(pages)-1].Number
		}
		return []filing.Section{{
			Title:     "Document",
			StartPage: 1,
			EndPage:   end,
			Content:   content,
		}}
	}

	lastPage := 1
	if len(pages) > 0 {
		lastPage = pages[len(pages)-1].Number
	}
	byNum := make(map[int]filing.Page, len(pages))
	for _, p := range pages {
		byNum[p.Number] = p
	}

	var sections []filing.Section
	for _, sp := range spansFromAnchors(anchors, lastPage) {
		var content []filing.PageContent
		for n := sp.StartPage; n <= sp.EndPage; n++ {
			p, ok := byNum[n]
			if !ok {
				continue
			}
			t := strings.TrimSpace(p.Text)
			if t == "" {
				continue
			}
			content = append(content, filing.PageContent{
				Page:    n,
				Snippet: clipRunes(t, cfg.SnippetLen),
				Full:    t,
			})
		}
		if len(content) > 0 {
			sections = append(sections, filing.Section{
				Title:     sp.Title,
				StartPage: sp.StartPage,
				EndPage:   sp.EndPage,
				Content:   content,
			})
		}
	}
	return sections
}
