package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmorhan/filingsift/internal/filing"
)

var sentenceRe = regexp.MustCompile(`(?s)(.*?\.)(\s+|$)`)

// splitSentences returns the "."-terminated sentences of text, trimmed.
// Empty entries are kept so callers can decide how to treat them.
func splitSentences(text string) []string {
	var out []string
	for _, m := range sentenceRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// clipRunes caps s at n runes.
func clipRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest, treating any non-letter as a word boundary.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// contentText prefers the full page text over the snippet.
func contentText(c filing.PageContent) string {
	if c.Full != "" {
		return c.Full
	}
	return c.Snippet
}

// sectionText joins a section's per-page text with single spaces.
func sectionText(sec filing.Section) string {
	parts := make([]string, 0, len(sec.Content))
	for _, c := range sec.Content {
		parts = append(parts, contentText(c))
	}
	return strings.Join(parts, " ")
}

// firstSectionWithPrefix returns the first section whose lowercased title
// starts with prefix.
func firstSectionWithPrefix(sections []filing.Section, prefix string) (filing.Section, bool) {
	for _, s := range sections {
		if strings.HasPrefix(strings.ToLower(s.Title), prefix) {
			return s, true
		}
	}
	return filing.Section{}, false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
