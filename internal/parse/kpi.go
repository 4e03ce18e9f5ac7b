package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

// kpiNumRe pulls the first dollar figure off a line. Only the grouped
// digits are captured, so parenthesized negatives read positive here.
var kpiNumRe = regexp.MustCompile(`\$?\(?([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)\)?`)

// ExtractKPIs scrapes named metrics from the MD&A and financial-statement
// pages. For each metric the last hit in page order wins as the value
// while Pages records every hit. Segments are not derivable from a single
// filing's text and stay empty.
func ExtractKPIs(pages []filing.Page, sectionsMap map[string]filing.PageRange, cfg KPIConfig) ([]filing.KPI, []filing.Segment, error) {
	targets := make([]string, len(cfg.TargetSections))
	for i, t := range cfg.TargetSections {
		targets[i] = strings.ToLower(t)
	}

	pageSet := make(map[int]bool)
	for key, pr := range sectionsMap {
		if containsAny(strings.ToLower(key), targets) {
			for _, n := range pr.Pages {
				pageSet[n] = true
			}
		}
	}
	scanPages := make([]int, 0, len(pageSet))
	for n := range pageSet {
		scanPages = append(scanPages, n)
	}
	sort.Ints(scanPages)

	textByPage := make(map[int]string, len(pages))
	for _, p := range pages {
		textByPage[p.Number] = p.Text
	}

	kpis := []filing.KPI{}
	for _, metric := range cfg.Metrics {
		res := make([]*regexp.Regexp, 0, len(metric.Patterns))
		for _, pat := range metric.Patterns {
			re, err := regexp.Compile(`(?i)` + pat)
			if err != nil {
				return nil, nil, fmt.Errorf("kpi pattern %q: %w", pat, err)
			}
			res = append(res, re)
		}

		var (
			hitVal   float64
			hitPages []int
		)
		for _, pn := range scanPages {
			t := textByPage[pn]
			if t == "" {
				continue
			}
			pageHit := false
			for _, re := range res {
				if re.MatchString(t) {
					pageHit = true
					break
				}
			}
			if !pageHit {
				continue
			}
			for _, ln := range strings.Split(t, "\n") {
				lineHit := false
				for _, re := range res {
					if re.MatchString(ln) {
						lineHit = true
						break
					}
				}
				if !lineHit {
					continue
				}
				m := kpiNumRe.FindStringSubmatch(ln)
				if m == nil {
					continue
				}
				if v, ok := ParseNumericToken(m[1]); ok {
					hitVal = v
					hitPages = append(hitPages, pn)
				}
			}
		}
		if len(hitPages) > 0 {
			kpis = append(kpis, filing.KPI{
				Name:  metric.Name,
				Value: hitVal,
				Unit:  "USD",
				Pages: hitPages,
			})
		}
	}

	return kpis, []filing.Segment{}, nil
}
