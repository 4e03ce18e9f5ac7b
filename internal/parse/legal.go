package parse

import (
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// ExtractLegal pulls litigation sentences from the legal-proceedings
// section. When no sentence carries a cue the first sentence becomes a
// single catch-all item.
func ExtractLegal(sections []filing.Section, cfg LegalConfig) filing.LegalBlock {
	block := filing.LegalBlock{Items: []filing.LegalItem{}}
	sec, ok := firstSectionWithPrefix(sections, "item 3")
	if !ok {
		return block
	}

	sents := splitSentences(sectionText(sec))
	for _, s := range sents {
		if runeLen(s) < cfg.MinSentenceLen {
			continue
		}
		low := strings.ToLower(s)
		if !containsAny(low, cfg.Cues) {
			continue
		}
		block.Items = append(block.Items, filing.LegalItem{
			Title:   "Legal Proceeding",
			Summary: s,
			Pages:   []int{sec.StartPage},
		})
		if len(block.Items) >= cfg.MaxItems {
			break
		}
	}
	if len(block.Items) == 0 && len(sents) > 0 {
		block.Items = append(block.Items, filing.LegalItem{
			Title:   "Legal Proceedings",
			Summary: sents[0],
			Pages:   []int{sec.StartPage},
		})
	}
	return block
}
