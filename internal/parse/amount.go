package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountRe matches prose amounts like "$3.93 billion", "$1,975", "1.2 bn"
// or "500 million". The scale words are ordered longest-first so the full
// word wins over its abbreviation.
var amountRe = regexp.MustCompile(`(?i)([$€])?\s*([0-9][\d,]*(?:\.\d+)?)\s*(billion|million|thousand|bn|mm|m|k)?`)

var scaleFactors = map[string]float64{
	"billion":  1e9,
	"bn":       1e9,
	"million":  1e6,
	"mm":       1e6,
	"m":        1e6,
	"thousand": 1e3,
	"k":        1e3,
}

// ScaleFactor returns the multiplier for a scale word, or 1 when the word
// is empty or unknown (bare numbers pass through at face value).
func ScaleFactor(unit string) float64 {
	if f, ok := scaleFactors[strings.ToLower(unit)]; ok {
		return f
	}
	return 1
}

func scaledValue(num, unit string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v * ScaleFactor(unit), true
}

// ParseAmount parses the first prose amount in text into a scaled value:
// "$1,250,000" and "$1.25 million" both yield 1250000.
func ParseAmount(text string) (float64, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return scaledValue(m[2], m[3])
}

// BestAmount scans text for prose amounts and returns the largest one as a
// human-readable string plus its scaled value. The first of equal maxima
// wins.
func BestAmount(text string) (string, float64, bool) {
	var (
		bestPretty string
		bestVal    float64
		found      bool
	)
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		v, ok := scaledValue(m[2], m[3])
		if !ok {
			continue
		}
		cur := m[1]
		if cur == "" {
			cur = "$"
		}
		pretty := cur + m[2]
		if m[3] != "" {
			pretty += " " + m[3]
		}
		if !found || v > bestVal {
			bestPretty = strings.TrimSpace(pretty)
			bestVal = v
			found = true
		}
	}
	return bestPretty, bestVal, found
}

// ParseNumericToken parses a table-style numeric token: commas stripped,
// "$" ignored, parentheses negate. "(500)" yields -500.
func ParseNumericToken(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		return -v, true
	}
	return v, true
}

// FormatUSD renders a value compactly: $1.23B / $456.70M / $12.30K, else
// whole dollars with thousands separators.
func FormatUSD(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	}
	return "$" + groupThousands(fmt.Sprintf("%.0f", v))
}

// groupThousands inserts commas into a formatted integer, keeping any
// leading sign.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	n := len(digits)
	if n > 3 {
		var b strings.Builder
		if neg {
			b.WriteByte('-')
		}
		head := n % 3
		if head > 0 {
			b.WriteString(digits[:head])
			b.WriteByte(',')
		}
		for i := head; i < n; i += 3 {
			b.WriteString(digits[i : i+3])
			if i+3 < n {
				b.WriteByte(',')
			}
		}
		return b.String()
	}
	if neg {
		return "-" + digits
	}
	return digits
}
