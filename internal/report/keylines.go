package report

import (
	"regexp"
	"strings"
)

// numericCellRe accepts figures as they appear in filing tables: optional
// parens, dollar sign and percent, comma-grouped digits, decimals.
var numericCellRe = regexp.MustCompile(`^\s*\(?\$?-?[0-9][0-9,]*(?:\.[0-9]+)?%?\)?\s*$`)

// isNumericCell reports whether a table cell reads as a figure. Dashes and
// empty cells count as numeric so sparse columns still align with their
// neighbors.
func isNumericCell(cell string) bool {
	s := strings.TrimSpace(cell)
	switch s {
	case "", "-", "—", "–":
		return true
	}
	return numericCellRe.MatchString(s)
}

// keyLabelPhrases mark headline line items wherever they appear in a row
// label.
var keyLabelPhrases = []string{
	"cash and cash equivalents",
	"revenue",
	"operating income",
	"operating loss",
	"gross profit",
	"gross margin",
}

// isKeyLabel reports whether a row label names a headline line item worth
// surfacing above the full table.
func isKeyLabel(label string) bool {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "total") || strings.HasPrefix(s, "net") {
		return true
	}
	for _, phrase := range keyLabelPhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
