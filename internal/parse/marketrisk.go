package parse

import (
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// ExtractMarketRisk buckets sentences of the quantitative-disclosures
// section into exposure categories. Categories are scanned in order and
// each keeps at most MaxPerCategory sentences.
func ExtractMarketRisk(sections []filing.Section, cfg MarketRiskConfig) filing.MarketRisk {
	var mr filing.MarketRisk
	sec, ok := firstSectionWithPrefix(sections, "item 7a")
	if !ok {
		return mr
	}

	sents := splitSentences(sectionText(sec))
	for _, cat := range cfg.Categories {
		var hits []string
		for _, s := range sents {
			if runeLen(s) < cfg.MinSentenceLen {
				continue
			}
			if containsAny(strings.ToLower(s), cat.Cues) {
				hits = append(hits, s)
				if len(hits) >= cfg.MaxPerCategory {
					break
				}
			}
		}
		if len(hits) == 0 {
			continue
		}
		switch cat.Name {
		case "foreign_currency":
			mr.ForeignCurrency = hits
		case "interest_rate":
			mr.InterestRate = hits
		case "commodity":
			mr.Commodity = hits
		case "credit":
			mr.Credit = hits
		case "var":
			mr.VaR = hits
		}
	}
	return mr
}
