package parse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmorhan/filingsift/internal/filing"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// ProgressFunc receives one call per section while a document is being
// analyzed, with percent climbing to 100 on the last section.
type ProgressFunc func(section string, percent int)

// Analyzer runs the structural pass: anchors, sections, citations and
// the derived extraction stages. A failed stage records its error and
// leaves its zero value in place; it never aborts the run.
type Analyzer struct {
	heur Heuristics

	// Stages is the extraction surface; NewAnalyzer wires the built-in
	// heuristics. Swap in NoopStages to skip derived extraction.
	Stages Stages

	// Progress is optional. It is invoked synchronously from Analyze.
	Progress ProgressFunc
}

func NewAnalyzer(heur Heuristics) *Analyzer {
	return &Analyzer{heur: heur, Stages: HeuristicStages{Heur: heur}}
}

// Analyze builds the full analysis for the given pages.
func (a *Analyzer) Analyze(pages []filing.Page) filing.AnalysisResult {
	anchors := FindAnchors(pages, a.heur.Anchors)
	sections := SliceSections(pages, anchors, a.heur.Sections)
	sections = RescueCoreSections(sections, pages, a.heur.Sections)

	a.reportProgress(sections)

	docType := "generic"
	if len(anchors) > 0 {
		docType = "10-K/10-Q detected"
	}

	res := filing.AnalysisResult{
		CreatedAt: time.Now().UTC().Format(timestampLayout),
		DocMeta: filing.DocMeta{
			Pages:        lastPageNumber(pages),
			DocType:      docType,
			AnchorsFound: len(anchors),
		},
		Sections:    sections,
		SectionsMap: sectionsMap(sections),
		Pages:       pages,
		Citations:   CitationsFromPages(pages, a.heur.Citations),
		Derived:     filing.NewDerived(),
	}

	stageErrs := map[string]string{}

	if kpis, segments, err := a.runKPIs(pages, res.SectionsMap); err != nil {
		stageErrs["kpi"] = err.Error()
	} else {
		res.Derived.KPIs = kpis
		res.Derived.Segments = segments
	}

	if risks, err := a.runRisks(sections); err != nil {
		stageErrs["risks"] = err.Error()
	} else {
		res.Derived.Risks = risks
	}

	if tables, err := a.runFinancials(pages, sections); err != nil {
		stageErrs["financials"] = err.Error()
	} else {
		res.Derived.Financials = tables
	}

	if blocks, err := a.runNonGAAP(sections); err != nil {
		stageErrs["non_gaap"] = err.Error()
	} else {
		res.Derived.NonGAAP = blocks
	}

	if mr, err := a.runMarketRisk(sections); err != nil {
		stageErrs["market_risk"] = err.Error()
	} else {
		res.Derived.MarketRisk = mr
	}

	if rep, err := a.runControls(sections); err != nil {
		stageErrs["auditor"] = err.Error()
	} else {
		res.Derived.Auditor = rep
	}

	if legal, err := a.runLegal(sections); err != nil {
		stageErrs["legal"] = err.Error()
	} else {
		res.Derived.Legal = legal
	}

	if capital, err := a.runCapital(pages); err != nil {
		stageErrs["capital_structure"] = err.Error()
	} else {
		res.Capital = capital
	}

	if len(stageErrs) > 0 {
		res.Derived.StageErrors = stageErrs
	}
	return res
}

// Degenerate returns the placeholder result used when no text could be
// extracted from the upload.
func (a *Analyzer) Degenerate() filing.AnalysisResult {
	if a.Progress != nil {
		a.Progress("Document", 100)
	}
	return filing.AnalysisResult{
		CreatedAt: time.Now().UTC().Format(timestampLayout),
		DocMeta:   filing.DocMeta{Pages: 1, DocType: "unknown", AnchorsFound: 0},
		Sections: []filing.Section{{
			Title:     "Document",
			StartPage: 1,
			EndPage:   1,
			Content:   []filing.PageContent{{Page: 1, Snippet: "(non-PDF preview)"}},
		}},
		SectionsMap: map[string]filing.PageRange{"Document": {Pages: []int{1}}},
		Pages:       []filing.Page{{Number: 1, Text: "(non-PDF)"}},
		Citations:   []filing.Citation{{Page: 1, Snippet: "(non-PDF)"}},
		Derived:     filing.NewDerived(),
	}
}

func (a *Analyzer) reportProgress(sections []filing.Section) {
	if a.Progress == nil || len(sections) == 0 {
		return
	}
	n := len(sections)
	for i, s := range sections {
		pct := int(math.RoundToEven(float64(i+1) / float64(n) * 100))
		a.Progress(s.Title, pct)
	}
}

// recoverStage converts a stage panic into an error so one malformed
// page cannot take down the whole analysis.
func recoverStage(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("stage panic: %v", r)
	}
}

func (a *Analyzer) runKPIs(pages []filing.Page, sm map[string]filing.PageRange) (kpis []filing.KPI, segments []filing.Segment, err error) {
	defer recoverStage(&err)
	return a.Stages.KPIs(pages, sm)
}

func (a *Analyzer) runRisks(sections []filing.Section) (risks []filing.RiskStatement, err error) {
	defer recoverStage(&err)
	return a.Stages.Risks(sections)
}

// runFinancials scans the financial-statements span first. When that
// yields nothing the whole document is scanned and the result capped,
// since the page gate alone can fire on narrative pages.
func (a *Analyzer) runFinancials(pages []filing.Page, sections []filing.Section) (tables []filing.TableBlock, err error) {
	defer recoverStage(&err)
	tables = []filing.TableBlock{}
	if sec, ok := firstSectionWithPrefix(sections, "item 8"); ok {
		var span []filing.Page
		for _, p := range pages {
			if p.Number >= sec.StartPage && p.Number <= sec.EndPage {
				span = append(span, p)
			}
		}
		tables, err = a.Stages.Tables(span)
		if err != nil {
			return nil, err
		}
	}
	if len(tables) == 0 {
		tables, err = a.Stages.Tables(pages)
		if err != nil {
			return nil, err
		}
		if len(tables) > a.heur.Tables.FallbackTableLimit {
			tables = tables[:a.heur.Tables.FallbackTableLimit]
		}
	}
	if tables == nil {
		tables = []filing.TableBlock{}
	}
	return tables, nil
}

func (a *Analyzer) runNonGAAP(sections []filing.Section) (blocks []filing.NonGAAPBlock, err error) {
	defer recoverStage(&err)
	return a.Stages.NonGAAP(sections)
}

func (a *Analyzer) runMarketRisk(sections []filing.Section) (mr filing.MarketRisk, err error) {
	defer recoverStage(&err)
	return a.Stages.MarketRisk(sections)
}

func (a *Analyzer) runControls(sections []filing.Section) (rep filing.ControlsReport, err error) {
	defer recoverStage(&err)
	return a.Stages.Controls(sections)
}

func (a *Analyzer) runLegal(sections []filing.Section) (legal filing.LegalBlock, err error) {
	defer recoverStage(&err)
	return a.Stages.Legal(sections)
}

func (a *Analyzer) runCapital(pages []filing.Page) (capital filing.CapitalStructure, err error) {
	defer recoverStage(&err)
	return a.Stages.Capital(pages)
}

func lastPageNumber(pages []filing.Page) int {
	if len(pages) == 0 {
		return 1
	}
	last := pages[0].Number
	for _, p := range pages[1:] {
		if p.Number > last {
			last = p.Number
		}
	}
	return last
}

func sectionsMap(sections []filing.Section) map[string]filing.PageRange {
	m := make(map[string]filing.PageRange, len(sections))
	for _, s := range sections {
		nums := []int{}
		for n := s.StartPage; n <= s.EndPage; n++ {
			nums = append(nums, n)
		}
		m[s.Title] = filing.PageRange{Pages: nums}
	}
	return m
}

// CitationsFromPages returns page-tagged snippets for the leading pages
// of the document, with newlines flattened to spaces.
func CitationsFromPages(pages []filing.Page, cfg CitationConfig) []filing.Citation {
	out := []filing.Citation{}
	for i, p := range pages {
		if i >= cfg.MaxCitations {
			break
		}
		snip := strings.ReplaceAll(strings.TrimSpace(p.Text), "\n", " ")
		out = append(out, filing.Citation{Page: p.Number, Snippet: clipRunes(snip, cfg.SnippetLen)})
	}
	return out
}
