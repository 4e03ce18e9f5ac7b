package filing

// TableBlock is a detected financial table: a header row plus body rows,
// all cells kept as the source text.
type TableBlock struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Pages  []int      `json:"pages"`
}

// KPI is a named metric found by the lexical scan. Value is the last hit
// in page order; Pages records every page that contributed a hit. YoY and
// QoQ stay nil until deltas can be computed from comparable periods.
type KPI struct {
	Name  string   `json:"name"`
	Value float64  `json:"value"`
	Unit  string   `json:"unit"`
	YoY   *float64 `json:"yoy"`
	QoQ   *float64 `json:"qoq"`
	Pages []int    `json:"pages"`
}

// Segment is a reporting-segment placeholder. Segment detail is not
// derivable from a single filing's text scan, so the list stays empty.
type Segment struct {
	Name        string `json:"name"`
	Revenue     string `json:"rev,omitempty"`
	GrossMargin string `json:"gm,omitempty"`
	Pages       []int  `json:"pages,omitempty"`
}

// RiskStatement is one scored risk sentence.
type RiskStatement struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// LegalItem is one legal-proceedings bullet.
type LegalItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Pages   []int  `json:"pages"`
}

// LegalBlock wraps the legal items so the JSON shape stays stable even
// when nothing was found.
type LegalBlock struct {
	Items []LegalItem `json:"items"`
}

// MarketRisk groups market-risk sentences by exposure category. Absent
// categories are omitted from the JSON encoding.
type MarketRisk struct {
	ForeignCurrency []string `json:"foreign_currency,omitempty"`
	InterestRate    []string `json:"interest_rate,omitempty"`
	Commodity       []string `json:"commodity,omitempty"`
	Credit          []string `json:"credit,omitempty"`
	VaR             []string `json:"var,omitempty"`
}

// Empty reports whether no category matched.
func (m MarketRisk) Empty() bool {
	return len(m.ForeignCurrency) == 0 && len(m.InterestRate) == 0 &&
		len(m.Commodity) == 0 && len(m.Credit) == 0 && len(m.VaR) == 0
}

// ControlsReport captures the Item 9/9A controls discussion. The zero
// value encodes as {} when the section is absent. MaterialWeakness is a
// pointer so an explicit "no weakness" survives omitempty.
type ControlsReport struct {
	Pages            []int  `json:"pages,omitempty"`
	Opinion          string `json:"opinion,omitempty"`
	MaterialWeakness *bool  `json:"material_weakness,omitempty"`
	AuditorName      string `json:"auditor_name,omitempty"`
}

// Empty reports whether the controls scan found nothing.
func (c ControlsReport) Empty() bool {
	return len(c.Pages) == 0 && c.Opinion == "" && c.MaterialWeakness == nil &&
		c.AuditorName == ""
}

// NonGAAPRow is one reconciliation line: a label and its last numeric
// token, both verbatim.
type NonGAAPRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// NonGAAPBlock is one detected reconciliation.
type NonGAAPBlock struct {
	Metric string       `json:"metric"`
	Period string       `json:"period"`
	Recon  []NonGAAPRow `json:"recon"`
	Pages  []int        `json:"pages"`
}

// Instrument is one debt instrument line.
type Instrument struct {
	Name     string `json:"name"`
	Coupon   string `json:"coupon"`
	Currency string `json:"currency"`
	Maturity string `json:"maturity"`
	Amount   string `json:"amount"`
	Pages    []int  `json:"pages"`
}

// CapitalStructure holds human-readable liquidity figures and the
// instrument list. Fields are omitted when nothing matched.
type CapitalStructure struct {
	Cash        string       `json:"cash,omitempty"`
	TotalDebt   string       `json:"total_debt,omitempty"`
	NetCash     string       `json:"net_cash,omitempty"`
	Instruments []Instrument `json:"instruments,omitempty"`
}

// Empty reports whether nothing was extracted.
func (c CapitalStructure) Empty() bool {
	return c.Cash == "" && c.TotalDebt == "" && c.NetCash == "" && len(c.Instruments) == 0
}

// Derived collects the per-stage extraction outputs. StageErrors maps a
// stage name to its failure message; a failed stage leaves its zero value
// in place and never blocks the other stages.
type Derived struct {
	KPIs        []KPI             `json:"kpis"`
	Segments    []Segment         `json:"segments"`
	Risks       []RiskStatement   `json:"risks"`
	Financials  []TableBlock      `json:"financials"`
	NonGAAP     []NonGAAPBlock    `json:"non_gaap"`
	MarketRisk  MarketRisk        `json:"market_risk"`
	Auditor     ControlsReport    `json:"auditor"`
	Legal       LegalBlock        `json:"legal"`
	StageErrors map[string]string `json:"stage_errors,omitempty"`
}

// NewDerived returns a Derived with every collection non-nil so the JSON
// encoding carries empty lists rather than nulls.
func NewDerived() Derived {
	return Derived{
		KPIs:       []KPI{},
		Segments:   []Segment{},
		Risks:      []RiskStatement{},
		Financials: []TableBlock{},
		NonGAAP:    []NonGAAPBlock{},
		Legal:      LegalBlock{Items: []LegalItem{}},
	}
}

// AnalysisResult is the full output of one structural analysis run.
// CreatedAt is the only field that differs between two runs over the same
// pages.
type AnalysisResult struct {
	CreatedAt   string               `json:"created_at"`
	DocMeta     DocMeta              `json:"doc_meta"`
	Sections    []Section            `json:"sections"`
	SectionsMap map[string]PageRange `json:"sections_map"`
	Pages       []Page               `json:"pages"`
	Citations   []Citation           `json:"citations"`
	Derived     Derived              `json:"derived"`
	Capital     CapitalStructure     `json:"capital_structure"`
}
