package parse

import (
	"regexp"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// Headline liquidity statements: "cash and cash equivalents of $31.0
// billion", "total debt was $9.6 billion". A bare "cash of $X" without the
// equivalents phrase does not match.
var (
	cashRe = regexp.MustCompile(`(?is)\bcash\s+(?:and\s+cash\s+equivalents|&\s*equivalents)?(?:\s+of|[:])?\s*(?P<amount>(?:[$€]\s*)?[0-9][\d,]*(?:\.\d+)?(?:\s*(?:billion|million|thousand|bn|mm|m|k))?)`)
	debtRe = regexp.MustCompile(`(?is)\btotal\s+debt(?:\s+(?:was|of))?(?:\s*[:])?\s*(?P<amount>(?:[$€]\s*)?[0-9][\d,]*(?:\.\d+)?(?:\s*(?:billion|million|thousand|bn|mm|m|k))?)`)

	couponRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	dueRe      = regexp.MustCompile(`(?i)\bdue\s+(on\s+)?([A-Za-z]+\s+\d{1,2},\s+\d{4}|\d{4})`)
	dueSplitRe = regexp.MustCompile(`(?i)\bdue\b`)
	curCodeRe  = regexp.MustCompile(`(?i)\b(USD|EUR|GBP)\b`)
)

// firstMatchAmount scans pages in order and returns the first parseable
// amount captured by pat.
func firstMatchAmount(pages []filing.Page, pat *regexp.Regexp) (string, float64, bool) {
	idx := pat.SubexpIndex("amount")
	for _, p := range pages {
		m := pat.FindStringSubmatch(p.Text)
		if m == nil {
			continue
		}
		if pretty, val, ok := BestAmount(m[idx]); ok {
			return pretty, val, true
		}
	}
	return "", 0, false
}

// instrumentFromLine parses one candidate debt-instrument line. Lines
// without a keyword or a parseable amount are narrative and are skipped.
func instrumentFromLine(line string, cfg CapitalConfig) (filing.Instrument, bool) {
	if !containsAny(strings.ToLower(line), cfg.InstrumentKeywords) {
		return filing.Instrument{}, false
	}

	amount, _, ok := BestAmount(line)
	if !ok {
		return filing.Instrument{}, false
	}

	coupon := ""
	if m := couponRe.FindStringSubmatch(line); m != nil {
		coupon = m[1] + "%"
	}

	maturity := ""
	if m := dueRe.FindStringSubmatch(line); m != nil {
		maturity = m[2]
	}

	currency := ""
	switch {
	case strings.Contains(line, "€"):
		currency = "EUR"
	case strings.Contains(line, "$"):
		currency = "USD"
	default:
		if m := curCodeRe.FindStringSubmatch(line); m != nil {
			currency = strings.ToUpper(m[1])
		}
	}

	name := strings.TrimSpace(line)
	if strings.Contains(strings.ToLower(name), " due ") {
		name = strings.TrimSpace(dueSplitRe.Split(name, 2)[0])
	}
	if !containsAny(strings.ToLower(name), cfg.InstrumentKeywords) {
		return filing.Instrument{}, false
	}

	return filing.Instrument{
		Name:     clipRunes(name, cfg.MaxNameLen),
		Coupon:   coupon,
		Currency: currency,
		Maturity: maturity,
		Amount:   amount,
	}, true
}

// ExtractCapitalStructure pulls headline cash/debt figures and the debt
// instrument list from the page text. Net cash is reported only when both
// headline figures parsed.
func ExtractCapitalStructure(pages []filing.Page, cfg CapitalConfig) filing.CapitalStructure {
	var out filing.CapitalStructure

	cashPretty, cashVal, cashOK := firstMatchAmount(pages, cashRe)
	debtPretty, debtVal, debtOK := firstMatchAmount(pages, debtRe)
	if cashOK {
		out.Cash = cashPretty
	}
	if debtOK {
		out.TotalDebt = debtPretty
	}
	if cashOK && debtOK {
		out.NetCash = FormatUSD(cashVal - debtVal)
	}

	type dedupKey struct{ name, amount, maturity string }
	seen := make(map[dedupKey]bool)
	var instruments []filing.Instrument
	for _, p := range pages {
		for _, raw := range strings.Split(p.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" || runeLen(line) < cfg.MinLineLen {
				continue
			}
			inst, ok := instrumentFromLine(line, cfg)
			if !ok {
				continue
			}
			inst.Pages = []int{p.Number}
			key := dedupKey{inst.Name, inst.Amount, inst.Maturity}
			if seen[key] {
				continue
			}
			seen[key] = true
			instruments = append(instruments, inst)
		}
	}
	if len(instruments) > 0 {
		out.Instruments = instruments
	}
	return out
}
