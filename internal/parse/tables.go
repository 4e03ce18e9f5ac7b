package parse

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/dmorhan/filingsift/internal/filing"
)

// Ranked statement-title patterns; the first hit near the top of a page
// names every block found on it.
var finTitlePatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Consolidated Balance Sheets",
		regexp.MustCompile(`(?i)CONSOLIDATED\s+(?:BALANCE\s+SHEETS?|STATEMENTS?\s+OF\s+FINANCIAL\s+POSITION)`)},
	{"Consolidated Statements of Operations",
		regexp.MustCompile(`(?i)CONSOLIDATED\s+STATEMENTS?\s+OF\s+(?:OPERATIONS|INCOME|LOSS)`)},
	{"Consolidated Statements of Cash Flows",
		regexp.MustCompile(`(?i)CONSOLIDATED\s+STATEMENTS?\s+OF\s+CASH\s+FLOWS?`)},
	{"Consolidated Statements of Stockholders’ Equity",
		regexp.MustCompile(`(?i)CONSOLIDATED\s+STATEMENTS?\s+OF\s+(?:CHANGES\s+IN\s+)?(?:STOCKHOLDERS’|STOCKHOLDERS'|SHAREHOLDERS’|SHAREHOLDERS')\s+EQUITY`)},
	{"Consolidated Statements of Comprehensive Income",
		regexp.MustCompile(`(?i)CONSOLIDATED\s+STATEMENTS?\s+OF\s+COMPREHENSIVE\s+INCOME`)},
	{"Balance Sheet", regexp.MustCompile(`(?i)\bBALANCE\s+SHEETS?\b`)},
	{"Statement of Operations", regexp.MustCompile(`(?i)\bSTATEMENTS?\s+OF\s+(?:OPERATIONS|INCOME|LOSS)\b`)},
	{"Statement of Cash Flows", regexp.MustCompile(`(?i)\bSTATEMENTS?\s+OF\s+CASH\s+FLOWS?\b`)},
	{"Stockholders' Equity", regexp.MustCompile(`(?i)(?:STOCKHOLDERS’|STOCKHOLDERS'|SHAREHOLDERS’|SHAREHOLDERS')\s+EQUITY`)},
}

// tableGateRe keeps the extractor off pages that cannot be financial
// statements, so huge filings stay cheap to scan.
var tableGateRe = regexp.MustCompile(`(?is)(?:` +
	`consolidated\s+statements?.{0,60}(?:operations|income|loss|cash\s+flows?|comprehensive\s+income|stockholders[’']\s+equity)|` +
	`consolidated\s+balance\s+sheets?|` +
	`statements?.{0,60}(?:operations|income|loss|cash\s+flows?|comprehensive\s+income|stockholders[’']\s+equity)|` +
	`balance\s+sheets?` +
	`)`)

// tableNumTokenRe matches amounts, percents and parenthesized negatives.
var tableNumTokenRe = regexp.MustCompile(`\(?\$?-?\d[\d,]*\.?\d*%?\)?`)

var periodHintRe = regexp.MustCompile(`(?i)(?:years?\s+ended|year\s+ended|as\s+of|three\s+months|twelve\s+months|six\s+months|nine\s+months|dec(?:ember)?|sep(?:tember)?|mar(?:ch)?|jun(?:e)?|201\d|202\d)`)

var spaceRunRe = regexp.MustCompile(`[ \t]+`)
var colSplitRe = regexp.MustCompile(`\s{2,}`)

// NBSP and thin/figure/narrow spaces become plain spaces; soft hyphens
// are dropped.
var spaceNormalizer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2009", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u00ad", "",
)

// normalizePageText maps odd space characters to plain spaces and
// collapses space runs so column splitting sees consistent gaps.
func normalizePageText(t string) string {
	return spaceRunRe.ReplaceAllString(spaceNormalizer.Replace(t), " ")
}

// isNumericCell treats empties and dashes as numeric so sparse columns
// still count.
func isNumericCell(s string) bool {
	ss := strings.TrimSpace(s)
	if ss == "" || ss == "-" || ss == "—" || ss == "–" {
		return true
	}
	ss = strings.ReplaceAll(ss, ",", "")
	ss = strings.ReplaceAll(ss, "$", "")
	ss = strings.TrimSpace(ss)
	if strings.HasPrefix(ss, "(") && strings.HasSuffix(ss, ")") {
		ss = ss[1 : len(ss)-1]
	}
	ss = strings.TrimSuffix(ss, "%")
	_, err := strconv.ParseFloat(ss, 64)
	return err == nil
}

// numericColumnIndices returns the column indices whose cells are numeric
// at or above minRatio, measured over the widest row.
func numericColumnIndices(rows [][]string, minRatio float64) []int {
	if len(rows) == 0 {
		return nil
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	var idxs []int
	for j := 0; j < width; j++ {
		num := 0
		for _, r := range rows {
			cell := ""
			if j < len(r) {
				cell = r[j]
			}
			if isNumericCell(cell) {
				num++
			}
		}
		if float64(num)/float64(len(rows)) >= minRatio {
			idxs = append(idxs, j)
		}
	}
	return idxs
}

// splitCols splits a line into columns by tabs or 2+ spaces; when that
// yields fewer than 3 parts it peels right-aligned numeric tokens off the
// tail and keeps the remaining lead as the label.
func splitCols(line string) []string {
	var cols []string
	if strings.Contains(line, "\t") {
		for _, c := range strings.Split(line, "\t") {
			cols = append(cols, strings.TrimSpace(c))
		}
	} else {
		parts := colSplitRe.Split(line, -1)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 3 {
			cols = parts
		} else if nums := tableNumTokenRe.FindAllString(line, -1); len(nums) >= 2 {
			lead := strings.TrimSpace(line[:strings.Index(line, nums[0])])
			if lead != "" {
				cols = append(cols, lead)
			}
			for _, n := range nums {
				cols = append(cols, strings.TrimSpace(n))
			}
		} else {
			cols = parts
		}
	}
	out := cols[:0]
	for _, c := range cols {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func looksTableLine(line string) bool {
	if len(splitCols(line)) >= 3 {
		return true
	}
	return len(tableNumTokenRe.FindAllString(line, -1)) >= 2
}

// nonNumericRatio measures label-ness of a row; dashes and empties are
// excluded from the numerator.
func nonNumericRatio(cells []string) float64 {
	if len(cells) == 0 {
		return 1.0
	}
	nonNum := 0
	for _, c := range cells {
		cc := strings.NewReplacer(",", "", "(", "", ")", "", "$", "").Replace(c)
		cc = strings.TrimRight(strings.TrimSpace(cc), "%")
		if cc == "—" || cc == "-" || cc == "–" || cc == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cc, 64); err != nil {
			nonNum++
		}
	}
	return float64(nonNum) / float64(len(cells))
}

// cleanGrid drops all-empty rows and columns, trims cells and pads rows to
// a uniform width.
func cleanGrid(grid [][]string) [][]string {
	var rows [][]string
	for _, r := range grid {
		trimmed := make([]string, len(r))
		keep := false
		for i, c := range r {
			trimmed[i] = strings.TrimSpace(c)
			if trimmed[i] != "" {
				keep = true
			}
		}
		if keep {
			rows = append(rows, trimmed)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	maxW := 0
	for _, r := range rows {
		if len(r) > maxW {
			maxW = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < maxW {
			r = append(r, "")
		}
		rows[i] = r
	}
	var keepIdx []int
	for j := 0; j < maxW; j++ {
		for _, r := range rows {
			if r[j] != "" {
				keepIdx = append(keepIdx, j)
				break
			}
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		nr := make([]string, len(keepIdx))
		for k, j := range keepIdx {
			nr[k] = r[j]
		}
		out[i] = nr
	}
	return out
}

// mergeTwoLineHeader merges the first two rows into one header when both
// read as labels (mean non-numeric ratio >= the configured threshold) or
// either carries a period hint; otherwise the first row alone is the
// header.
func mergeTwoLineHeader(rows [][]string, cfg TableConfig) ([]string, [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) >= 2 {
		r0, r1 := rows[0], rows[1]
		headerish := (nonNumericRatio(r0)+nonNumericRatio(r1))/2 >= cfg.HeaderTextRatio
		periodish := periodHintRe.MatchString(strings.Join(r0, " ")) || periodHintRe.MatchString(strings.Join(r1, " "))
		if headerish || periodish {
			n := min(len(r0), len(r1))
			merged := make([]string, 0, max(len(r0), len(r1)))
			for i := 0; i < n; i++ {
				a := strings.TrimSpace(r0[i])
				b := strings.TrimSpace(r1[i])
				switch {
				case a != "" && b != "" && a != b:
					merged = append(merged, a+" "+b)
				case a != "":
					merged = append(merged, a)
				default:
					merged = append(merged, b)
				}
			}
			if len(r0) != len(r1) {
				tail := r1[n:]
				if len(r0) > len(r1) {
					tail = r0[n:]
				}
				for _, t := range tail {
					merged = append(merged, strings.TrimSpace(t))
				}
			}
			return merged, rows[2:]
		}
	}
	return rows[0], rows[1:]
}

func dedupAdjacentRows(rows [][]string) [][]string {
	var out [][]string
	for i, r := range rows {
		if i == 0 || !slices.Equal(r, rows[i-1]) {
			out = append(out, r)
		}
	}
	return out
}

// unwrapWrappedRows folds rows where only the first cell has text (wrapped
// account names) into the previous row's first cell.
func unwrapWrappedRows(rows [][]string) [][]string {
	var out [][]string
	for _, r := range rows {
		first := ""
		if len(r) > 0 {
			first = strings.TrimSpace(r[0])
		}
		rest := false
		if len(r) > 1 {
			for _, c := range r[1:] {
				if strings.TrimSpace(c) != "" {
					rest = true
					break
				}
			}
		}
		if len(out) > 0 && first != "" && !rest {
			out[len(out)-1][0] = strings.TrimSpace(out[len(out)-1][0] + " " + first)
		} else {
			out = append(out, r)
		}
	}
	return out
}

// inferTitle names a page's tables from its first lines: a ranked
// statement pattern, else a shouty all-caps line mentioning a statement
// keyword.
func inferTitle(text string, cfg TableConfig) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > cfg.TitleScanLines {
		lines = lines[:cfg.TitleScanLines]
	}
	head := strings.Join(lines, "\n")
	for _, p := range finTitlePatterns {
		if p.re.MatchString(head) {
			return p.label
		}
	}
	for _, ln := range lines {
		c := strings.TrimSpace(ln)
		if runeLen(c) >= cfg.ShoutyTitleLen && strings.ToUpper(c) == c &&
			(strings.Contains(c, "BALANCE") || strings.Contains(c, "STATEMENT") || strings.Contains(c, "STATEMENTS")) {
			return c
		}
	}
	return ""
}

// segmentTableBlocks splits page text into grids: runs of table-ish lines
// separated by at most one non-table line.
func segmentTableBlocks(text string, cfg TableConfig) [][][]string {
	var (
		blocks [][][]string
		buf    [][]string
		gap    int
	)
	flush := func() {
		if len(buf) >= cfg.MinRows {
			if grid := cleanGrid(buf); len(grid) >= cfg.MinRows {
				blocks = append(blocks, grid)
			}
		}
		buf = nil
	}
	for _, raw := range strings.Split(text, "\n") {
		ln := strings.TrimRightFunc(raw, unicode.IsSpace)
		if strings.TrimSpace(ln) == "" {
			gap++
			if gap > 1 && len(buf) > 0 {
				flush()
			}
			continue
		}
		if looksTableLine(ln) {
			buf = append(buf, splitCols(ln))
			gap = 0
		} else {
			gap++
			if gap > 1 && len(buf) > 0 {
				flush()
			}
		}
	}
	if len(buf) > 0 {
		flush()
	}
	return blocks
}

// ExtractTables finds table blocks on statement-like pages using text
// layout only. Each block keeps the page it came from; a page's title is
// resolved once and shared by its blocks.
func ExtractTables(pages []filing.Page, cfg TableConfig) []filing.TableBlock {
	out := []filing.TableBlock{}

	for _, page := range pages {
		txt := normalizePageText(page.Text)
		if txt == "" {
			continue
		}
		if !tableGateRe.MatchString(txt) {
			continue
		}

		title := inferTitle(txt, cfg)
		if title == "" {
			title = "Financial table (detected)"
		}

		for _, grid := range segmentTableBlocks(txt, cfg) {
			if len(grid) < 2 || len(grid[0]) < 2 {
				continue
			}

			header, body := mergeTwoLineHeader(grid, cfg)
			var kept [][]string
			for _, r := range dedupAdjacentRows(body) {
				for _, c := range r {
					if strings.TrimSpace(c) != "" {
						kept = append(kept, r)
						break
					}
				}
			}
			body = unwrapWrappedRows(kept)

			// Narrative note snippets rarely have two numeric columns.
			numCols := numericColumnIndices(body, cfg.NumericColRatio)
			if len(numCols) < 2 {
				continue
			}

			if len(header) > 0 && !periodHintRe.MatchString(strings.Join(header, " ")) {
				if len(numCols) < 3 && len(body) < 6 {
					continue
				}
			}

			if len(body) > cfg.MaxRows {
				body = body[:cfg.MaxRows]
			}

			out = append(out, filing.TableBlock{
				Title:  title,
				Header: header,
				Rows:   body,
				Pages:  []int{page.Number},
			})
		}
	}
	return out
}
