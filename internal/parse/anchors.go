package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// itemHeadingRe matches line-anchored item headings such as
// "Item 7A. Quantitative and Qualitative Disclosures".
var itemHeadingRe = regexp.MustCompile(`(?im)^\s*Item\s+(\d{1,2}[A-Z]?)\.\s+([^\n]+?)\s*$`)

// tocLineRe matches dot-leader lines like "..... 45".
var tocLineRe = regexp.MustCompile(`\.{3,}\s*\d{1,4}\s*$`)

// looksLikeTOC flags pages that read like a table of contents.
func looksLikeTOC(text string, cfg AnchorConfig) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "table of contents") ||
		strings.Count(t, " . ") > cfg.TOCSpacedDots ||
		strings.Count(t, ".....") > cfg.TOCDotRuns
}

// isDenseItemPage flags pages listing many item headings, which are almost
// always an index rather than the sections themselves.
func isDenseItemPage(text string, cfg AnchorConfig) bool {
	return len(itemHeadingRe.FindAllStringIndex(text, -1)) >= cfg.DenseItemCount
}

// lineAround returns the trimmed source line containing [start,end).
func lineAround(text string, start, end int) string {
	ls := strings.LastIndex(text[:start], "\n") + 1
	le := strings.Index(text[end:], "\n")
	if le == -1 {
		le = len(text)
	} else {
		le += end
	}
	return strings.TrimSpace(text[ls:le])
}

// FindAnchors locates item headings across pages. TOC pages and dense
// index pages within the front-matter cutoff are skipped, dot-leader lines
// are vetoed per match, and the first occurrence of each item code wins.
// Results are sorted by (page, offset).
func FindAnchors(pages []filing.Page, cfg AnchorConfig) []filing.Anchor {
	seen := make(map[string]bool)
	var anchors []filing.Anchor

	for _, p := range pages {
		if p.Number <= cfg.FrontMatterPages && looksLikeTOC(p.Text, cfg) {
			continue
		}
		if isDenseItemPage(p.Text, cfg) {
			continue
		}
		for _, m := range itemHeadingRe.FindAllStringSubmatchIndex(p.Text, -1) {
			if tocLineRe.MatchString(lineAround(p.Text, m[0], m[1])) {
				continue
			}
			item := strings.ToUpper(p.Text[m[2]:m[3]])
			if seen[item] {
				continue
			}
			seen[item] = true
			anchors = append(anchors, filing.Anchor{
				Item:   item,
				Title:  strings.TrimSpace(p.Text[m[4]:m[5]]),
				Page:   p.Number,
				Offset: m[0],
			})
		}
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].Page != anchors[j].Page {
			return anchors[i].Page < anchors[j].Page
		}
		return anchors[i].Offset < anchors[j].Offset
	})
	return anchors
}
