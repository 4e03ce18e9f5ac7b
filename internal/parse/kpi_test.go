package parse

import (
	"testing"

	"github.com/dmorhan/filingsift/internal/filing"
)

func TestExtractKPIs_LastHitWinsAcrossPages(t *testing.T) {
	pages := []filing.Page{
		{Number: 3, Text: "Net sales $1,000 for fiscal 2022."},
		{Number: 4, Text: "Unrelated narrative without figures."},
		{Number: 5, Text: "Net sales $1,200 for fiscal 2023."},
	}
	sm := map[string]filing.PageRange{
		"Consolidated Statements of Operations": {Pages: []int{3, 5}},
	}
	kpis, segments, err := ExtractKPIs(pages, sm, DefaultHeuristics().KPIs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kpis) != 1 {
		t.Fatalf("expected 1 kpi, got %d: %+v", len(kpis), kpis)
	}
	k := kpis[0]
	if k.Name != "revenue" {
		t.Errorf("expected revenue, got %q", k.Name)
	}
	if k.Value != 1200 {
		t.Errorf("expected the later figure 1200 to win, got %v", k.Value)
	}
	if len(k.Pages) != 2 || k.Pages[0] != 3 || k.Pages[1] != 5 {
		t.Errorf("expected pages [3 5], got %v", k.Pages)
	}
	if k.Unit != "USD" {
		t.Errorf("expected USD unit, got %q", k.Unit)
	}
	if k.YoY != nil {
		t.Errorf("expected no YoY, got %v", *k.YoY)
	}
	if segments == nil || len(segments) != 0 {
		t.Errorf("expected empty non-nil segments, got %v", segments)
	}
}

func TestExtractKPIs_IgnoresPagesOutsideTargetSections(t *testing.T) {
	pages := []filing.Page{
		{Number: 2, Text: "Net sales $9,999 appear in a letter to shareholders."},
	}
	sm := map[string]filing.PageRange{
		"Item 1. Business": {Pages: []int{2}},
	}
	kpis, _, err := ExtractKPIs(pages, sm, DefaultHeuristics().KPIs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kpis) != 0 {
		t.Fatalf("expected no kpis outside target sections, got %+v", kpis)
	}
}

func TestExtractKPIs_BadPatternSurfacesError(t *testing.T) {
	cfg := KPIConfig{
		TargetSections: []string{"consolidated statements"},
		Metrics:        []KPIMetric{{Name: "broken", Patterns: []string{"("}}},
	}
	pages := []filing.Page{{Number: 1, Text: "anything"}}
	sm := map[string]filing.PageRange{"Consolidated Statements": {Pages: []int{1}}}
	if _, _, err := ExtractKPIs(pages, sm, cfg); err == nil {
		t.Fatalf("expected a compile error")
	}
}
