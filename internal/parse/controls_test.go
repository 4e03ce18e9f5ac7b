package parse

import (
	"testing"

	"github.com/dmorhan/filingsift/internal/filing"
)

func TestExtractControls_NotEffectiveWithMaterialWeakness(t *testing.T) {
	sections := []filing.Section{{
		Title:     "Item 9A. Controls and Procedures",
		StartPage: 80,
		EndPage:   81,
		Content: []filing.PageContent{{
			Page: 80,
			Full: "Management concluded that our disclosure controls and procedures were not effective as of " +
				"December 31, 2023 due to the material weakness described below. KPMG LLP audited the " +
				"consolidated financial statements.",
		}},
	}}
	rep, err := ExtractControls(sections, DefaultHeuristics().Controls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Opinion != "not effective" {
		t.Errorf("expected opinion %q, got %q", "not effective", rep.Opinion)
	}
	if rep.MaterialWeakness == nil || !*rep.MaterialWeakness {
		t.Errorf("expected material weakness true, got %v", rep.MaterialWeakness)
	}
	if rep.AuditorName != "KPMG" {
		t.Errorf("expected auditor KPMG, got %q", rep.AuditorName)
	}
	if len(rep.Pages) != 1 || rep.Pages[0] != 80 {
		t.Errorf("expected pages [80], got %v", rep.Pages)
	}
}

func TestExtractControls_Item9FallbackEffective(t *testing.T) {
	sections := []filing.Section{{
		Title:     "Item 9. Changes in and Disagreements with Accountants",
		StartPage: 85,
		EndPage:   85,
		Content: []filing.PageContent{{
			Page: 85,
			Full: "Our internal control over financial reporting was effective. Deloitte & Touche LLP served as our independent auditor.",
		}},
	}}
	rep, err := ExtractControls(sections, DefaultHeuristics().Controls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Opinion != "effective" {
		t.Errorf("expected opinion %q, got %q", "effective", rep.Opinion)
	}
	if rep.MaterialWeakness == nil || *rep.MaterialWeakness {
		t.Errorf("expected material weakness false, got %v", rep.MaterialWeakness)
	}
	if rep.AuditorName != "Deloitte" {
		t.Errorf("expected auditor Deloitte, got %q", rep.AuditorName)
	}
}

func TestExtractControls_NoControlsSection(t *testing.T) {
	sections := []filing.Section{{Title: "Item 1. Business", StartPage: 1, EndPage: 5}}
	rep, err := ExtractControls(sections, DefaultHeuristics().Controls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Opinion != "" || rep.MaterialWeakness != nil || rep.AuditorName != "" || len(rep.Pages) != 0 {
		t.Errorf("expected zero report, got %+v", rep)
	}
}

func TestExtractControls_BadFirmPatternSurfacesError(t *testing.T) {
	cfg := ControlsConfig{AuditorFirms: []string{"("}}
	sections := []filing.Section{{Title: "Item 9A. Controls", StartPage: 1, EndPage: 1}}
	if _, err := ExtractControls(sections, cfg); err == nil {
		t.Fatalf("expected a compile error")
	}
}
