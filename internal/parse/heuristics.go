package parse

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// AnchorConfig tunes Item-heading detection and TOC suppression.
type AnchorConfig struct {
	FrontMatterPages int `yaml:"front_matter_pages"`
	DenseItemCount   int `yaml:"dense_item_count"`
	TOCSpacedDots    int `yaml:"toc_spaced_dots"`
	TOCDotRuns       int `yaml:"toc_dot_runs"`
}

// SectionConfig tunes section slicing and the anchorless fallback.
type SectionConfig struct {
	SnippetLen   int `yaml:"snippet_len"`
	PreviewPages int `yaml:"preview_pages"`
}

// CitationConfig tunes the per-page citation list.
type CitationConfig struct {
	MaxCitations int `yaml:"max_citations"`
	SnippetLen   int `yaml:"snippet_len"`
}

// TableConfig tunes layout-based table detection.
type TableConfig struct {
	MinRows            int     `yaml:"min_rows"`
	MaxRows            int     `yaml:"max_rows"`
	NumericColRatio    float64 `yaml:"numeric_col_ratio"`
	HeaderTextRatio    float64 `yaml:"header_text_ratio"`
	TitleScanLines     int     `yaml:"title_scan_lines"`
	ShoutyTitleLen     int     `yaml:"shouty_title_len"`
	FallbackTableLimit int     `yaml:"fallback_table_limit"`
}

// KPIMetric names one metric and the patterns that locate it. Patterns
// are compiled case-insensitively.
type KPIMetric struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// KPIConfig names the sections to scan and the metrics to look for.
type KPIConfig struct {
	TargetSections []string    `yaml:"target_sections"`
	Metrics        []KPIMetric `yaml:"metrics"`
}

// CapitalConfig tunes debt-instrument line detection.
type CapitalConfig struct {
	InstrumentKeywords []string `yaml:"instrument_keywords"`
	MinLineLen         int      `yaml:"min_line_len"`
	MaxNameLen         int      `yaml:"max_name_len"`
}

// RiskConfig tunes risk-sentence scoring. Cues must be lowercase.
type RiskConfig struct {
	Cues         []string `yaml:"cues"`
	Threshold    float64  `yaml:"threshold"`
	MaxRisks     int      `yaml:"max_risks"`
	ShortLen     int      `yaml:"short_len"`
	ShortPenalty float64  `yaml:"short_penalty"`
}

// LegalConfig tunes legal-proceedings extraction. Cues must be lowercase.
type LegalConfig struct {
	Cues           []string `yaml:"cues"`
	MinSentenceLen int      `yaml:"min_sentence_len"`
	MaxItems       int      `yaml:"max_items"`
}

// MarketRiskCategory is one exposure bucket and its cues.
type MarketRiskCategory struct {
	Name string   `yaml:"name"`
	Cues []string `yaml:"cues"`
}

// MarketRiskConfig tunes market-risk bucketing.
type MarketRiskConfig struct {
	Categories     []MarketRiskCategory `yaml:"categories"`
	MinSentenceLen int                  `yaml:"min_sentence_len"`
	MaxPerCategory int                  `yaml:"max_per_category"`
}

// ControlsConfig lists audit-firm patterns joined into one alternation.
type ControlsConfig struct {
	AuditorFirms []string `yaml:"auditor_firms"`
}

// NonGAAPConfig lists metric patterns for reconciliation headings.
type NonGAAPConfig struct {
	MetricHints []string `yaml:"metric_hints"`
}

// Heuristics bundles every tunable of the structural pass.
type Heuristics struct {
	Anchors    AnchorConfig     `yaml:"anchors"`
	Sections   SectionConfig    `yaml:"sections"`
	Citations  CitationConfig   `yaml:"citations"`
	Tables     TableConfig      `yaml:"tables"`
	KPIs       KPIConfig        `yaml:"kpis"`
	Capital    CapitalConfig    `yaml:"capital"`
	Risks      RiskConfig       `yaml:"risks"`
	Legal      LegalConfig      `yaml:"legal"`
	MarketRisk MarketRiskConfig `yaml:"market_risk"`
	Controls   ControlsConfig   `yaml:"controls"`
	NonGAAP    NonGAAPConfig    `yaml:"non_gaap"`
}

// DefaultHeuristics returns the tuned values the extractors were
// calibrated with.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Anchors: AnchorConfig{
			FrontMatterPages: 50,
			DenseItemCount:   5,
			TOCSpacedDots:    10,
			TOCDotRuns:       8,
		},
		Sections: SectionConfig{
			SnippetLen:   1200,
			PreviewPages: 8,
		},
		Citations: CitationConfig{
			MaxCitations: 10,
			SnippetLen:   240,
		},
		Tables: TableConfig{
			MinRows:            3,
			MaxRows:            120,
			NumericColRatio:    0.55,
			HeaderTextRatio:    0.6,
			TitleScanLines:     60,
			ShoutyTitleLen:     12,
			FallbackTableLimit: 4,
		},
		KPIs: KPIConfig{
			TargetSections: []string{
				"Item 7. MANAGEMENT’S DISCUSSION AND ANALYSIS",
				"Item 8. FINANCIAL STATEMENTS",
				"Consolidated Statements",
			},
			Metrics: []KPIMetric{
				{Name: "revenue", Patterns: []string{`net\s+sales`, `revenue`}},
				{Name: "net_income", Patterns: []string{`net\s+income`, `net\s+earnings`}},
				{Name: "eps", Patterns: []string{`earnings\s+per\s+share`, `eps`}},
				{Name: "free_cash_flow", Patterns: []string{`free\s+cash\s+flow`}},
				{Name: "cash", Patterns: []string{`cash\s+and\s+cash\s+equivalents`, `cash\s+and\s+cash-equivalents`}},
			},
		},
		Capital: CapitalConfig{
			InstrumentKeywords: []string{
				"convertible", "senior", "notes", "note", "debenture", "bond",
				"term loan", "revolving", "credit facility", "asset-backed", "asset backed",
				"secured", "unsecured", "loan", "facility",
			},
			MinLineLen: 8,
			MaxNameLen: 120,
		},
		Risks: RiskConfig{
			Cues: []string{
				"risk", "uncertain", "uncertainty", "could", "may", "might",
				"adverse", "material adverse", "exposure", "vulnerab", "depend",
				"volatil", "fluctuat", "subject to", "regulatory", "litigation",
				"supply", "cost pressures", "competition", "macroeconomic",
			},
			Threshold:    0.8,
			MaxRisks:     10,
			ShortLen:     40,
			ShortPenalty: 0.25,
		},
		Legal: LegalConfig{
			Cues: []string{
				"legal proceeding", "litigation", "lawsuit",
				"settlement", "investigation", "regulatory",
			},
			MinSentenceLen: 60,
			MaxItems:       3,
		},
		MarketRisk: MarketRiskConfig{
			Categories: []MarketRiskCategory{
				{Name: "foreign_currency", Cues: []string{"foreign currency", "fx", "exchange rate", "currency risk"}},
				{Name: "interest_rate", Cues: []string{"interest rate", "rates", "duration", "sensitivity"}},
				{Name: "commodity", Cues: []string{"commodity", "raw material", "lithium", "nickel", "cobalt"}},
				{Name: "credit", Cues: []string{"counterparty", "credit risk", "receivables"}},
				{Name: "var", Cues: []string{"value at risk", "var ", "VaR"}},
			},
			MinSentenceLen: 60,
			MaxPerCategory: 6,
		},
		Controls: ControlsConfig{
			AuditorFirms: []string{
				"PricewaterhouseCoopers", "PwC", "Deloitte", "KPMG",
				`Ernst\s*&\s*Young`, "Grant Thornton", "BDO",
			},
		},
		NonGAAP: NonGAAPConfig{
			MetricHints: []string{
				`adjusted\s+ebitda`, `ebitda`, `net\s+income`, `net\s+loss`,
				`operating\s+income`, `operating\s+loss`, `gross\s+profit`, `gross\s+margin`,
				`free\s+cash\s+flow`, `cash\s+flows?`, `revenue`, `earnings\s+per\s+share|eps`,
			},
		},
	}
}

// LoadHeuristics applies a YAML overlay file on top of the defaults.
// Keys absent from the file keep their default values.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	data, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("read heuristics file: %w", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("parse heuristics file: %w", err)
	}
	return h, nil
}
