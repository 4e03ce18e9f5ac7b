package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// Canonical titles for synthesized core sections.
const (
	titleItem7  = "Item 7. Management’s Discussion and Analysis of Financial Condition and Results of Operations"
	titleItem7A = "Item 7A. Quantitative and Qualitative Disclosures About Market Risk"
	titleItem8  = "Item 8. Financial Statements and Supplementary Data"
)

var rescueItemRe = regexp.MustCompile(`(?im)^\s*item\s+(7a|7|8)\.?\s*([^\n]{0,120})`)

// findItemPage returns the first page whose text mentions the given item
// heading, or 0 when none does.
func findItemPage(pages []filing.Page, item string) int {
	for _, p := range pages {
		for _, m := range rescueItemRe.FindAllStringSubmatch(p.Text, -1) {
			if strings.ToLower(m[1]) == item {
				return p.Number
			}
		}
	}
	return 0
}

// RescueCoreSections synthesizes minimal sections for Items 7, 7A and 8
// when the anchor pass missed them, so the MD&A, market-risk and
// financial-table scans still have something to work on. Synthesized
// content is snippet-only.
func RescueCoreSections(sections []filing.Section, pages []filing.Page, cfg SectionConfig) []filing.Section {
	want7, want7a, want8 := true, true, true
	for _, s := range sections {
		t := strings.ToLower(s.Title)
		if strings.HasPrefix(t, "item 7.") {
			want7 = false
		}
		if strings.HasPrefix(t, "item 7a") {
			want7a = false
		}
		if strings.HasPrefix(t, "item 8.") {
			want8 = false
		}
	}
	if !want7 && !want7a && !want8 {
		return sections
	}

	byNum := make(map[int]filing.Page, len(pages))
	lastPage := 1
	for _, p := range pages {
		byNum[p.Number] = p
		if p.Number > lastPage {
			lastPage = p.Number
		}
	}

	p7 := findItemPage(pages, "7")
	p7a := findItemPage(pages, "7a")
	p8 := findItemPage(pages, "8")

	synth := func(title string, start, end int) (filing.Section, bool) {
		if start == 0 || end == 0 || start > end {
			return filing.Section{}, false
		}
		content := []filing.PageContent{}
		for n := start; n <= end; n++ {
			p, ok := byNum[n]
			if !ok {
				continue
			}
			content = append(content, filing.PageContent{
				Page:    n,
				Snippet: clipRunes(p.Text, cfg.SnippetLen),
			})
		}
		return filing.Section{Title: title, StartPage: start, EndPage: end, Content: content}, true
	}

	out := make([]filing.Section, len(sections))
	copy(out, sections)

	if want7 && p7 != 0 {
		// Ends just before whichever of 7A/8 comes first.
		next := 0
		if p7a != 0 {
			next = p7a
		}
		if p8 != 0 && (next == 0 || p8 < next) {
			next = p8
		}
		if next == 0 {
			next = lastPage
		}
		end := next - 1
		if end < p7 {
			end = p7
		}
		if sec, ok := synth(titleItem7, p7, end); ok {
			out = append(out, sec)
		}
	}
	if want7a && p7a != 0 {
		next := lastPage
		if p8 != 0 {
			next = p8
		}
		end := next - 1
		if end < p7a {
			end = p7a
		}
		if sec, ok := synth(titleItem7A, p7a, end); ok {
			out = append(out, sec)
		}
	}
	if want8 && p8 != 0 {
		if sec, ok := synth(titleItem8, p8, lastPage); ok {
			out = append(out, sec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartPage < out[j].StartPage
	})
	return out
}
