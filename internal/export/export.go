// Package export renders a stored analysis record as an XLSX workbook for
// download: an overview sheet plus one sheet each for KPIs, financial
// tables, risks, and debt instruments.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/dmorhan/filingsift/internal/store"
)

const (
	sheetOverview    = "Overview"
	sheetKPIs        = "KPIs"
	sheetFinancials  = "Financials"
	sheetRisks       = "Risks"
	sheetInstruments = "Instruments"
)

// BuildWorkbook renders the record's analysis result as a five-sheet
// workbook. The caller owns the returned file and closes it after
// writing it out.
func BuildWorkbook(rec *store.Record) (*excelize.File, error) {
	if rec == nil || rec.Result == nil {
		return nil, errors.New("record has no analysis result")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetOverview); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name overview sheet: %w", err)
	}
	for _, name := range []string{sheetKPIs, sheetFinancials, sheetRisks, sheetInstruments} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writeOverviewSheet(f, rec)
	writeKPIsSheet(f, rec.Result.Derived.KPIs)
	writeFinancialsSheet(f, rec.Result.Derived.Financials)
	writeRisksSheet(f, rec.Result.Derived.Risks)
	writeInstrumentsSheet(f, rec.Result.Capital.Instruments)

	if idx, err := f.GetSheetIndex(sheetOverview); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// sheetWriter appends rows to one sheet, tracking the next free row.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet, row: 1}
}

func (w *sheetWriter) writeRow(values ...any) {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			continue
		}
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.row++
}

func (w *sheetWriter) skipRow() { w.row++ }

func writeOverviewSheet(f *excelize.File, rec *store.Record) {
	w := newSheetWriter(f, sheetOverview)
	res := rec.Result

	docType := rec.DocType
	if docType == "" {
		docType = res.DocMeta.DocType
	}

	w.writeRow("Filing")
	w.writeRow("ID", rec.ID)
	w.writeRow("Filename", rec.Filename)
	w.writeRow("Doc Type", docType)
	w.writeRow("Created", rec.CreatedAt.Format("2006-01-02 15:04"))
	w.writeRow("Pages", res.DocMeta.Pages)
	w.writeRow("Anchors Found", res.DocMeta.AnchorsFound)
	if rec.ContentHash != "" {
		w.writeRow("Content Hash", rec.ContentHash)
	}

	if cs := res.Capital; !cs.Empty() {
		w.skipRow()
		w.writeRow("Capital Structure")
		if cs.Cash != "" {
			w.writeRow("Cash & Equivalents", cs.Cash)
		}
		if cs.TotalDebt != "" {
			w.writeRow("Total Debt", cs.TotalDebt)
		}
		if cs.NetCash != "" {
			w.writeRow("Net Cash (Debt)", cs.NetCash)
		}
		if len(cs.Instruments) > 0 {
			w.writeRow("Debt Instruments", len(cs.Instruments))
		}
	}

	if ctrl := res.Derived.Auditor; !ctrl.Empty() {
		w.skipRow()
		w.writeRow("Controls & Auditor")
		if ctrl.Opinion != "" {
			w.writeRow("Opinion", ctrl.Opinion)
		}
		if ctrl.AuditorName != "" {
			w.writeRow("Auditor", ctrl.AuditorName)
		}
		if ctrl.MaterialWeakness != nil {
			if *ctrl.MaterialWeakness {
				w.writeRow("Material Weakness", "reported")
			} else {
				w.writeRow("Material Weakness", "none reported")
			}
		}
		if len(ctrl.Pages) > 0 {
			w.writeRow("Auditor Pages", pageList(ctrl.Pages))
		}
	}

	_ = f.SetColWidth(sheetOverview, "A", "A", 22)
	_ = f.SetColWidth(sheetOverview, "B", "B", 60)
}

func writeKPIsSheet(f *excelize.File, kpis []filing.KPI) {
	w := newSheetWriter(f, sheetKPIs)
	w.writeRow("Name", "Value", "Unit", "YoY", "QoQ", "Pages")
	for _, k := range kpis {
		w.writeRow(k.Name, k.Value, k.Unit, deltaCell(k.YoY), deltaCell(k.QoQ), pageList(k.Pages))
	}
	_ = f.SetColWidth(sheetKPIs, "A", "A", 20)
	_ = f.SetColWidth(sheetKPIs, "B", "E", 12)
	_ = f.SetColWidth(sheetKPIs, "F", "F", 24)
}

func writeFinancialsSheet(f *excelize.File, tables []filing.TableBlock) {
	w := newSheetWriter(f, sheetFinancials)
	for i, t := range tables {
		if i > 0 {
			w.skipRow()
		}
		title := t.Title
		if title == "" {
			title = "Table"
		}
		if len(t.Pages) > 0 {
			title = fmt.Sprintf("%s (p.%d)", title, t.Pages[0])
		}
		w.writeRow(title)
		if len(t.Header) > 0 {
			w.writeRow(asAny(t.Header)...)
		}
		for _, row := range t.Rows {
			w.writeRow(asAny(row)...)
		}
	}
	_ = f.SetColWidth(sheetFinancials, "A", "A", 44)
	_ = f.SetColWidth(sheetFinancials, "B", "F", 16)
}

func writeRisksSheet(f *excelize.File, risks []filing.RiskStatement) {
	w := newSheetWriter(f, sheetRisks)
	w.writeRow("Risk", "Page")
	for _, r := range risks {
		w.writeRow(r.Text, r.Page)
	}
	_ = f.SetColWidth(sheetRisks, "A", "A", 100)
	_ = f.SetColWidth(sheetRisks, "B", "B", 8)
}

func writeInstrumentsSheet(f *excelize.File, instruments []filing.Instrument) {
	w := newSheetWriter(f, sheetInstruments)
	w.writeRow("Name", "Coupon", "Currency", "Maturity", "Amount", "Pages")
	for _, inst := range instruments {
		w.writeRow(inst.Name, inst.Coupon, inst.Currency, inst.Maturity, inst.Amount, pageList(inst.Pages))
	}
	_ = f.SetColWidth(sheetInstruments, "A", "A", 36)
	_ = f.SetColWidth(sheetInstruments, "B", "F", 14)
}

// deltaCell renders a YoY/QoQ fraction as a percentage, empty when the
// delta was never computed.
func deltaCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// pageList renders page hits as a comma-separated list.
func pageList(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func asAny(row []string) []any {
	out := make([]any, len(row))
	for i, s := range row {
		out[i] = s
	}
	return out
}
