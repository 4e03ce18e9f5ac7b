package report

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/dmorhan/filingsift/internal/store"
)

// maxAppendixCitations caps the sample citation list at the end of the
// report.
const maxAppendixCitations = 12

// renderMarkdown assembles the report body in its fixed section order.
func renderMarkdown(rec *store.Record, sections []sectionSummary) string {
	res := rec.Result
	var b strings.Builder

	b.WriteString("# Analyst Report\n\n")
	fmt.Fprintf(&b, "Pages: %d · Detected: %s", res.DocMeta.Pages, orUnknown(res.DocMeta.DocType))
	if rec.Filename != "" {
		b.WriteString(" · Source: " + rec.Filename)
	}
	b.WriteString("\n")

	writeOverview(&b, res.Derived.KPIs, res.Derived.Segments)
	writeMDNA(&b, mdnaSummary(sections))
	writeFinancials(&b, res.Derived.Financials)
	writeNonGAAP(&b, res.Derived.NonGAAP)
	writeCapital(&b, res.Capital)
	writeRisks(&b, res.Derived.Risks)
	writeMarketRisk(&b, res.Derived.MarketRisk)
	writeControls(&b, res.Derived.Auditor)
	writeLegal(&b, res.Derived.Legal)
	writeAppendix(&b, sections, res.Citations)

	return b.String()
}

func writeOverview(b *strings.Builder, kpis []filing.KPI, segments []filing.Segment) {
	b.WriteString("\n## Overview\n\n")
	b.WriteString("Auto-generated highlights with page references like `[p12]`.\n")

	if len(kpis) > 0 {
		// Casers are stateful, so build one per render instead of
		// sharing a package-level instance.
		caser := cases.Title(language.English)
		b.WriteString("\n### Key Metrics\n\n")
		b.WriteString("| Metric | Value | YoY | Pages |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, k := range kpis {
			label := caser.String(strings.ReplaceAll(k.Name, "_", " "))
			value := strconv.FormatFloat(k.Value, 'f', -1, 64)
			if k.Unit != "" {
				value += " " + k.Unit
			}
			yoy := "-"
			if k.YoY != nil {
				yoy = fmt.Sprintf("%.1f%%", *k.YoY*100)
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				mdCell(label), mdCell(value), yoy, firstPageTag(k.Pages, "-"))
		}
	}

	if len(segments) > 0 {
		b.WriteString("\n### Segments & Geography\n\n")
		b.WriteString("| Segment/Region | Revenue | Gross Margin | Pages |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, seg := range segments {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				mdCell(seg.Name), mdCell(seg.Revenue), mdCell(seg.GrossMargin),
				firstPageTag(seg.Pages, "-"))
		}
	}
}

func writeMDNA(b *strings.Builder, summary string) {
	b.WriteString("\n## Management's Discussion & Analysis (MD&A)\n\n")
	if strings.TrimSpace(summary) == "" {
		b.WriteString("(No MD&A summary extracted)\n")
		return
	}
	writeBullets(b, summary)
}

func writeFinancials(b *strings.Builder, tables []filing.TableBlock) {
	b.WriteString("\n## Financial Statements\n\n")
	if len(tables) == 0 {
		b.WriteString("(No financial tables extracted)\n")
		return
	}
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		title := t.Title
		if title == "" {
			title = "Table"
		}
		if tag := firstPageTag(t.Pages, ""); tag != "" {
			title += " " + tag
		}
		fmt.Fprintf(b, "### %s\n\n", title)

		if key := keyRows(t.Rows); len(key) > 0 {
			writeTable(b, t.Header, key)
			b.WriteString("\nKey lines shown. Full table below.\n\n")
		}
		writeTable(b, t.Header, t.Rows)
	}
}

func writeNonGAAP(b *strings.Builder, blocks []filing.NonGAAPBlock) {
	b.WriteString("\n## Non-GAAP Reconciliations\n\n")
	if len(blocks) == 0 {
		b.WriteString("(No non-GAAP reconciliations extracted)\n")
		return
	}
	for i, blk := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		title := blk.Metric
		if blk.Period != "" {
			title += " (" + blk.Period + ")"
		}
		if tag := firstPageTag(blk.Pages, ""); tag != "" {
			title += " " + tag
		}
		fmt.Fprintf(b, "### %s\n\n", title)
		for _, row := range blk.Recon {
			fmt.Fprintf(b, "- %s: %s\n", flatten(row.Label), flatten(row.Value))
		}
	}
}

func writeCapital(b *strings.Builder, cs filing.CapitalStructure) {
	b.WriteString("\n## Capital Structure\n\n")
	if cs.Empty() {
		b.WriteString("(No capital structure extracted)\n")
		return
	}
	if cs.Cash != "" {
		fmt.Fprintf(b, "- Cash & equivalents: %s\n", cs.Cash)
	}
	if cs.TotalDebt != "" {
		fmt.Fprintf(b, "- Total debt: %s\n", cs.TotalDebt)
	}
	if cs.NetCash != "" {
		fmt.Fprintf(b, "- Net cash (debt): %s\n", cs.NetCash)
	}
	if len(cs.Instruments) > 0 {
		b.WriteString("\n### Debt Instruments\n\n")
		b.WriteString("| Name | Coupon | Currency | Maturity | Amount | Pages |\n")
		b.WriteString("|---|---:|---|---|---:|---|\n")
		for _, inst := range cs.Instruments {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
				mdCell(inst.Name), mdCell(inst.Coupon), mdCell(inst.Currency),
				mdCell(inst.Maturity), mdCell(inst.Amount), firstPageTag(inst.Pages, ""))
		}
	}
}

func writeRisks(b *strings.Builder, risks []filing.RiskStatement) {
	b.WriteString("\n## Top Risks\n\n")
	if len(risks) == 0 {
		b.WriteString("(No risk factors summarized)\n")
		return
	}
	for _, r := range risks {
		line := "- " + flatten(r.Text)
		if r.Page > 0 {
			line += fmt.Sprintf(" [p%d]", r.Page)
		}
		b.WriteString(line + "\n")
	}
}

func writeMarketRisk(b *strings.Builder, mr filing.MarketRisk) {
	b.WriteString("\n## Market Risk (Item 7A)\n\n")
	if mr.Empty() {
		b.WriteString("(No market risk details extracted)\n")
		return
	}
	categories := []struct {
		name  string
		lines []string
	}{
		{"Foreign Currency", mr.ForeignCurrency},
		{"Interest Rate", mr.InterestRate},
		{"Commodity", mr.Commodity},
		{"Credit", mr.Credit},
		{"VaR", mr.VaR},
	}
	first := true
	for _, c := range categories {
		if len(c.lines) == 0 {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		fmt.Fprintf(b, "### %s\n\n", c.name)
		for _, ln := range c.lines {
			b.WriteString("- " + flatten(ln) + "\n")
		}
	}
}

func writeControls(b *strings.Builder, ctrl filing.ControlsReport) {
	b.WriteString("\n## Controls & Auditor\n\n")
	if ctrl.Empty() {
		b.WriteString("(No auditor/control details extracted)\n")
		return
	}
	if ctrl.Opinion != "" {
		fmt.Fprintf(b, "- Opinion: %s\n", ctrl.Opinion)
	}
	if ctrl.AuditorName != "" {
		fmt.Fprintf(b, "- Auditor: %s\n", ctrl.AuditorName)
	}
	if ctrl.MaterialWeakness != nil {
		if *ctrl.MaterialWeakness {
			b.WriteString("- Material weakness: reported\n")
		} else {
			b.WriteString("- Material weakness: none reported\n")
		}
	}
	if tag := firstPageTag(ctrl.Pages, ""); tag != "" {
		fmt.Fprintf(b, "- Pages: %s\n", tag)
	}
}

func writeLegal(b *strings.Builder, legal filing.LegalBlock) {
	b.WriteString("\n## Legal, Contingencies & Subsequent Events\n\n")
	if len(legal.Items) == 0 {
		b.WriteString("(No legal/contingency items extracted)\n")
		return
	}
	for _, item := range legal.Items {
		line := "- " + flatten(item.Title)
		if item.Summary != "" {
			line += ": " + flatten(item.Summary)
		}
		if tag := firstPageTag(item.Pages, ""); tag != "" {
			line += " " + tag
		}
		b.WriteString(line + "\n")
	}
}

func writeAppendix(b *strings.Builder, sections []sectionSummary, citations []filing.Citation) {
	b.WriteString("\n## Appendix: Section Summaries & Citations\n")
	for _, s := range sections {
		fmt.Fprintf(b, "\n### %s\n\n", flatten(s.Title))
		fmt.Fprintf(b, "p.%d-%d\n\n", s.StartPage, s.EndPage)
		if strings.TrimSpace(s.Summary) == "" {
			b.WriteString("(No summary available)\n")
			continue
		}
		writeBullets(b, s.Summary)
	}
	if len(citations) > 0 {
		b.WriteString("\n### Sample Citations\n\n")
		for i, c := range citations {
			if i >= maxAppendixCitations {
				break
			}
			fmt.Fprintf(b, "%d. [p%d] %s\n", i+1, c.Page, flatten(c.Snippet))
		}
	}
}

// writeTable renders one GFM table. A column right-aligns when every
// populated body cell past the label column reads as a figure. A missing
// header row becomes blank header cells because the table syntax requires
// one.
func writeTable(b *strings.Builder, header []string, rows [][]string) {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return
	}

	cells := make([]string, width)
	for i := range cells {
		if i < len(header) {
			cells[i] = mdCell(header[i])
		}
	}
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")

	for i := 0; i < width; i++ {
		if i > 0 && numericColumn(rows, i) {
			b.WriteString("|---:")
		} else {
			b.WriteString("|---")
		}
	}
	b.WriteString("|\n")

	for _, r := range rows {
		for i := range cells {
			cells[i] = ""
			if i < len(r) {
				cells[i] = mdCell(r[i])
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// keyRows filters rows whose first cell is a headline label.
func keyRows(rows [][]string) [][]string {
	var out [][]string
	for _, r := range rows {
		if len(r) > 0 && isKeyLabel(r[0]) {
			out = append(out, r)
		}
	}
	return out
}

// numericColumn reports whether column i holds figures in every row that
// has the column.
func numericColumn(rows [][]string, i int) bool {
	for _, r := range rows {
		if i < len(r) && !isNumericCell(r[i]) {
			return false
		}
	}
	return true
}

// writeBullets renders each non-blank line of a summary as one list item,
// tolerating summaries that already carry bullet markers.
func writeBullets(b *strings.Builder, text string) {
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		ln = strings.TrimPrefix(ln, "- ")
		ln = strings.TrimPrefix(ln, "* ")
		b.WriteString("- " + ln + "\n")
	}
}

// firstPageTag renders the leading page of a hit list as a [pN] tag.
func firstPageTag(pages []int, empty string) string {
	if len(pages) == 0 {
		return empty
	}
	return fmt.Sprintf("[p%d]", pages[0])
}

// mdCell flattens a cell onto one line and escapes pipes so the table
// syntax survives arbitrary source text.
func mdCell(s string) string {
	return strings.ReplaceAll(flatten(s), "|", `\|`)
}

// flatten collapses whitespace so multi-line source text stays on one
// list line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orUnknown(docType string) string {
	if docType == "" {
		return "unknown"
	}
	return docType
}
