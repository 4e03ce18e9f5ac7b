package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dmorhan/filingsift/internal/filing"
)

var (
	// Lines that likely open a reconciliation block.
	nongaapHeadRe = regexp.MustCompile(`(?i)^\s*(?:(?:non[-\s]?gaap).*(?:reconcil(?:iation|e))|(?:reconcil(?:iation|e))\s+of\s+(?:gaap|non[-\s]?gaap).*|(?:non[-\s]?gaap)\s+(?:financial\s+measures|measures)).{0,160}$`)

	// Item headers, part markers and shouty headings end a block.
	nongaapBreakRe = regexp.MustCompile(`(?i)^\s*item\s+\d{1,2}[A-Z]?\.\b|^\s*(?:part\s+[ivx]+|table\s+of\s+contents)\b|^\s*[A-Z0-9][A-Z0-9 \-,'/&()]{10,}\s*$`)

	nongaapPeriodRe = regexp.MustCompile(`(?i)\bfor\s+the\s+(?:three|six|nine|twelve|year|quarter|month|months|period)\s+(?:ended|ending)\s+[A-Za-z]+\s+\d{1,2},\s+\d{4}\b`)

	// Label, a 2+ space gap, then the remainder holding the value.
	nongaapLineRe = regexp.MustCompile(`^\s*([A-Za-z].{0,120}?)\s{2,}(.+?)\s*$`)

	nongaapNumRe = regexp.MustCompile(`\$?\(?-?[\d,]*\.?\d+\)?%?`)
)

type reconBlock struct {
	heading string
	lines   []string
}

// collectReconBlocks walks a page's lines and gathers each heading plus
// the lines that follow it, stopping at the next heading or break line.
func collectReconBlocks(text string) []reconBlock {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, ln := range raw {
		lines[i] = strings.TrimRightFunc(ln, unicode.IsSpace)
	}

	var blocks []reconBlock
	i, n := 0, len(lines)
	for i < n {
		if !nongaapHeadRe.MatchString(lines[i]) {
			i++
			continue
		}
		heading := strings.TrimSpace(lines[i])
		i++
		var body []string
		for i < n {
			ln := lines[i]
			if nongaapHeadRe.MatchString(ln) || nongaapBreakRe.MatchString(ln) {
				break
			}
			body = append(body, ln)
			i++
		}
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		if len(body) > 0 {
			blocks = append(blocks, reconBlock{heading: heading, lines: body})
		}
	}
	return blocks
}

// parseReconRows turns label/value lines into rows. The value is the last
// numeric token on the line, kept verbatim.
func parseReconRows(lines []string) []filing.NonGAAPRow {
	var rows []filing.NonGAAPRow
	for _, ln := range lines {
		m := nongaapLineRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		label := strings.Trim(m[1], " :–—-")
		nums := nongaapNumRe.FindAllString(m[2], -1)
		if len(nums) == 0 {
			continue
		}
		rows = append(rows, filing.NonGAAPRow{
			Label: label,
			Value: strings.TrimSpace(nums[len(nums)-1]),
		})
	}
	return rows
}

func inferMetricAndPeriod(heading string, metricRe *regexp.Regexp) (string, string) {
	metric := "Non-GAAP Reconciliation"
	period := ""
	if heading != "" {
		if m := metricRe.FindStringSubmatch(heading); m != nil {
			metric = titleCase(strings.TrimSpace(m[1]))
		}
		period = nongaapPeriodRe.FindString(heading)
	}
	return metric, period
}

// ExtractNonGAAP scans every section's page text for reconciliation
// blocks and returns one entry per block that yielded at least one row.
func ExtractNonGAAP(sections []filing.Section, cfg NonGAAPConfig) ([]filing.NonGAAPBlock, error) {
	metricRe, err := regexp.Compile(`(?i)(` + strings.Join(cfg.MetricHints, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile metric hints: %w", err)
	}

	out := []filing.NonGAAPBlock{}
	for _, sec := range sections {
		for _, item := range sec.Content {
			txt := contentText(item)
			if strings.TrimSpace(txt) == "" {
				continue
			}
			for _, b := range collectReconBlocks(txt) {
				rows := parseReconRows(b.lines)
				if len(rows) == 0 {
					continue
				}
				metric, period := inferMetricAndPeriod(b.heading, metricRe)
				pages := []int{}
				if item.Page != 0 {
					pages = []int{item.Page}
				}
				out = append(out, filing.NonGAAPBlock{
					Metric: metric,
					Period: period,
					Recon:  rows,
					Pages:  pages,
				})
			}
		}
	}
	return out, nil
}
