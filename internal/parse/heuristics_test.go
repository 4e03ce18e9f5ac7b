package parse

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHeuristics_Calibration(t *testing.T) {
	h := DefaultHeuristics()
	if h.Anchors.FrontMatterPages != 50 || h.Anchors.DenseItemCount != 5 {
		t.Errorf("unexpected anchor defaults: %+v", h.Anchors)
	}
	if h.Sections.SnippetLen != 1200 || h.Sections.PreviewPages != 8 {
		t.Errorf("unexpected section defaults: %+v", h.Sections)
	}
	if h.Citations.MaxCitations != 10 || h.Citations.SnippetLen != 240 {
		t.Errorf("unexpected citation defaults: %+v", h.Citations)
	}
	if h.Tables.MinRows != 3 || h.Tables.MaxRows != 120 || h.Tables.FallbackTableLimit != 4 {
		t.Errorf("unexpected table defaults: %+v", h.Tables)
	}
	if len(h.KPIs.Metrics) != 5 || h.KPIs.Metrics[0].Name != "revenue" {
		t.Errorf("unexpected kpi defaults: %+v", h.KPIs.Metrics)
	}
	if h.Risks.Threshold != 0.8 || len(h.Risks.Cues) != 20 {
		t.Errorf("unexpected risk defaults: threshold %v, %d cues", h.Risks.Threshold, len(h.Risks.Cues))
	}
	if len(h.MarketRisk.Categories) != 5 {
		t.Errorf("expected 5 market risk categories, got %d", len(h.MarketRisk.Categories))
	}
	if len(h.Controls.AuditorFirms) != 7 {
		t.Errorf("expected 7 auditor firms, got %d", len(h.Controls.AuditorFirms))
	}
}

func TestLoadHeuristics_OverlayKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	overlay := "tables:\n  max_rows: 40\nrisks:\n  threshold: 1.5\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	h, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Tables.MaxRows != 40 {
		t.Errorf("expected overridden max_rows 40, got %d", h.Tables.MaxRows)
	}
	if h.Tables.MinRows != 3 {
		t.Errorf("expected default min_rows 3 to survive, got %d", h.Tables.MinRows)
	}
	if h.Risks.Threshold != 1.5 {
		t.Errorf("expected overridden threshold 1.5, got %v", h.Risks.Threshold)
	}
	if len(h.Risks.Cues) != 20 {
		t.Errorf("expected default cues to survive, got %d", len(h.Risks.Cues))
	}
}

func TestLoadHeuristics_MissingFileReturnsDefaults(t *testing.T) {
	h, err := LoadHeuristics(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if h.Tables.MaxRows != 120 {
		t.Errorf("expected defaults alongside the error, got max_rows %d", h.Tables.MaxRows)
	}
}
