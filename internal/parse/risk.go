package parse

import (
	"sort"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

type scoredSentence struct {
	score float64
	page  int
	text  string
}

// sentencesWithPages splits a section's content into sentences tagged with
// their source page.
func sentencesWithPages(content []filing.PageContent) []scoredSentence {
	var out []scoredSentence
	for _, item := range content {
		txt := strings.TrimSpace(contentText(item))
		if txt == "" || item.Page == 0 {
			continue
		}
		for _, s := range splitSentences(txt) {
			if s != "" {
				out = append(out, scoredSentence{page: item.Page, text: s})
			}
		}
	}
	return out
}

// ExtractTopRisks scores the sentences of the risk-factors section by cue
// hits and length, keeps those above the threshold and returns the top
// ones ordered by score then page.
func ExtractTopRisks(sections []filing.Section, cfg RiskConfig) []filing.RiskStatement {
	out := []filing.RiskStatement{}
	sec, ok := firstSectionWithPrefix(sections, "item 1a")
	if !ok {
		return out
	}

	var scored []scoredSentence
	for _, sent := range sentencesWithPages(sec.Content) {
		low := strings.ToLower(sent.text)
		score := 0.0
		for _, cue := range cfg.Cues {
			if strings.Contains(low, cue) {
				score += 1.0
			}
		}
		n := float64(runeLen(sent.text))
		score += min(n/200.0, 1.0)
		if n < float64(cfg.ShortLen) {
			score -= cfg.ShortPenalty
		}
		if score > cfg.Threshold {
			sent.score = score
			scored = append(scored, sent)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].page < scored[j].page
	})
	if len(scored) > cfg.MaxRisks {
		scored = scored[:cfg.MaxRisks]
	}
	for _, s := range scored {
		out = append(out, filing.RiskStatement{Text: s.text, Page: s.page})
	}
	return out
}
