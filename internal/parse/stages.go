package parse

import "github.com/dmorhan/filingsift/internal/filing"

// Stages is the pluggable extraction surface behind the analyzer. Every
// method returns its stage's records or an error; the analyzer folds
// errors into the result without aborting the run. HeuristicStages is
// the default wiring and NoopStages turns every stage off.
type Stages interface {
	KPIs(pages []filing.Page, sectionsMap map[string]filing.PageRange) ([]filing.KPI, []filing.Segment, error)
	Risks(sections []filing.Section) ([]filing.RiskStatement, error)
	Tables(pages []filing.Page) ([]filing.TableBlock, error)
	NonGAAP(sections []filing.Section) ([]filing.NonGAAPBlock, error)
	MarketRisk(sections []filing.Section) (filing.MarketRisk, error)
	Controls(sections []filing.Section) (filing.ControlsReport, error)
	Legal(sections []filing.Section) (filing.LegalBlock, error)
	Capital(pages []filing.Page) (filing.CapitalStructure, error)
}

// HeuristicStages runs the lexical extractors in this package with the
// given tunables.
type HeuristicStages struct {
	Heur Heuristics
}

func (h HeuristicStages) KPIs(pages []filing.Page, sectionsMap map[string]filing.PageRange) ([]filing.KPI, []filing.Segment, error) {
	return ExtractKPIs(pages, sectionsMap, h.Heur.KPIs)
}

func (h HeuristicStages) Risks(sections []filing.Section) ([]filing.RiskStatement, error) {
	return ExtractTopRisks(sections, h.Heur.Risks), nil
}

func (h HeuristicStages) Tables(pages []filing.Page) ([]filing.TableBlock, error) {
	return ExtractTables(pages, h.Heur.Tables), nil
}

func (h HeuristicStages) NonGAAP(sections []filing.Section) ([]filing.NonGAAPBlock, error) {
	return ExtractNonGAAP(sections, h.Heur.NonGAAP)
}

func (h HeuristicStages) MarketRisk(sections []filing.Section) (filing.MarketRisk, error) {
	return ExtractMarketRisk(sections, h.Heur.MarketRisk), nil
}

func (h HeuristicStages) Controls(sections []filing.Section) (filing.ControlsReport, error) {
	return ExtractControls(sections, h.Heur.Controls)
}

func (h HeuristicStages) Legal(sections []filing.Section) (filing.LegalBlock, error) {
	return ExtractLegal(sections, h.Heur.Legal), nil
}

func (h HeuristicStages) Capital(pages []filing.Page) (filing.CapitalStructure, error) {
	return ExtractCapitalStructure(pages, h.Heur.Capital), nil
}

// NoopStages satisfies Stages with empty outputs for every stage.
type NoopStages struct{}

func (NoopStages) KPIs([]filing.Page, map[string]filing.PageRange) ([]filing.KPI, []filing.Segment, error) {
	return []filing.KPI{}, []filing.Segment{}, nil
}

func (NoopStages) Risks([]filing.Section) ([]filing.RiskStatement, error) {
	return []filing.RiskStatement{}, nil
}

func (NoopStages) Tables([]filing.Page) ([]filing.TableBlock, error) {
	return []filing.TableBlock{}, nil
}

func (NoopStages) NonGAAP([]filing.Section) ([]filing.NonGAAPBlock, error) {
	return []filing.NonGAAPBlock{}, nil
}

func (NoopStages) MarketRisk([]filing.Section) (filing.MarketRisk, error) {
	return filing.MarketRisk{}, nil
}

func (NoopStages) Controls([]filing.Section) (filing.ControlsReport, error) {
	return filing.ControlsReport{}, nil
}

func (NoopStages) Legal([]filing.Section) (filing.LegalBlock, error) {
	return filing.LegalBlock{Items: []filing.LegalItem{}}, nil
}

func (NoopStages) Capital([]filing.Page) (filing.CapitalStructure, error) {
	return filing.CapitalStructure{}, nil
}
