package report

import (
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// chunkChars caps one summarizer excerpt.
const chunkChars = 1600

// chunkBudget picks how many excerpts a section may send to the
// summarizer, scaled by the page span the section covers.
func chunkBudget(content []filing.PageContent) int {
	if len(content) == 0 {
		return 3
	}
	lo, hi := content[0].Page, content[0].Page
	for _, it := range content[1:] {
		if it.Page < lo {
			lo = it.Page
		}
		if it.Page > hi {
			hi = it.Page
		}
	}
	span := hi - lo + 1
	switch {
	case span <= 6:
		return 3
	case span <= 12:
		return 5
	default:
		return 6
	}
}

// sectionChunks packs section content into page-tagged excerpts for the
// summarizer. Full page text is preferred over the stored snippet, items
// pack greedily up to chunkChars, and each chunk carries the page of the
// item that started it.
func sectionChunks(content []filing.PageContent) ([]string, []int) {
	budget := chunkBudget(content)

	var chunks []string
	var pages []int
	buf := ""
	bufPage := 0
	for _, item := range content {
		text := item.Full
		if text == "" {
			text = item.Snippet
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if buf == "" {
			bufPage = item.Page
		}
		if len(buf)+len(text) <= chunkChars {
			if buf != "" {
				buf += "\n"
			}
			buf += text
			continue
		}
		if buf != "" {
			chunks = append(chunks, buf)
			pages = append(pages, firstPositive(bufPage, item.Page))
		}
		if len(text) > chunkChars {
			text = text[:chunkChars]
		}
		buf = text
		bufPage = item.Page
		if len(chunks) >= budget {
			break
		}
	}
	if buf != "" && len(chunks) < budget {
		chunks = append(chunks, buf)
		pages = append(pages, firstPositive(bufPage, firstContentPage(content)))
	}
	return chunks, pages
}

// firstPositive returns the first page number greater than zero, falling
// back to 1 so every chunk stays citable.
func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 1
}

func firstContentPage(content []filing.PageContent) int {
	if len(content) == 0 {
		return 0
	}
	return content[0].Page
}
