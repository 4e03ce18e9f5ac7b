package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
)

var (
	effectiveRe = regexp.MustCompile(`(?is)\b(disclosure controls and procedures|internal control over financial reporting).*?\b(effective|not effective)\b`)
	weaknessRe  = regexp.MustCompile(`(?i)\bmaterial weakness(es)?\b`)
)

// ExtractControls reads the controls-and-procedures section for an
// effectiveness opinion, a material-weakness mention and the audit firm.
// The material-weakness flag is always set when the section exists so a
// clean report is distinguishable from an absent one.
func ExtractControls(sections []filing.Section, cfg ControlsConfig) (filing.ControlsReport, error) {
	var rep filing.ControlsReport

	auditorRe, err := regexp.Compile(`(?i)\b(` + strings.Join(cfg.AuditorFirms, "|") + `)\b`)
	if err != nil {
		return rep, fmt.Errorf("compile auditor pattern: %w", err)
	}

	sec, ok := firstSectionWithPrefix(sections, "item 9a")
	if !ok {
		sec, ok = firstSectionWithPrefix(sections, "item 9.")
	}
	if !ok {
		return rep, nil
	}

	text := sectionText(sec)
	if m := effectiveRe.FindStringSubmatch(text); m != nil {
		rep.Opinion = strings.ToLower(m[2])
	}
	weak := weaknessRe.MatchString(text)
	rep.MaterialWeakness = &weak
	if m := auditorRe.FindStringSubmatch(text); m != nil {
		rep.AuditorName = m[1]
	}
	if sec.StartPage != 0 {
		rep.Pages = []int{sec.StartPage}
	}
	return rep, nil
}
