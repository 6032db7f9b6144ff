package currency

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToNumber converts a locale-ambiguous amount string into a float64. It never
// fails: unparsable input yields 0. Disambiguation rules:
//
//   - If both "." and "," appear, the separator closest to the end is the
//     decimal mark and the other is a thousands separator.
//   - If only "," appears and exactly 1-2 digits follow it, it is a decimal
//     mark; otherwise it is a thousands separator.
//   - Apostrophes and spaces are always grouping characters (Swiss/French).
//
// Every financial check in the pipeline depends on this function, so it must
// be deterministic: same input, same output, always.
func ToNumber(s string) float64 {
	n, ok := parse(s)
	if !ok {
		return 0
	}
	return n
}

// ToAmount is the decimal-backed variant of ToNumber used wherever amounts
// are accumulated. The boolean reports whether the input carried a parsable
// amount at all.
func ToAmount(s string) (decimal.Decimal, bool) {
	n, ok := parse(s)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(n), true
}

func parse(s string) (float64, bool) {
	cleaned := clean(s)
	if cleaned == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// US/UK: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		digitsAfter := len(cleaned) - lastComma - 1
		if digitsAfter >= 1 && digitsAfter <= 2 && strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			// 1.234.567 is European grouping
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// clean strips currency symbols, letters, grouping apostrophes and whitespace,
// keeping digits, separators and a leading sign.
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// symbolTable maps currency markers to ISO 4217 codes, most specific first.
// "CA$" and "C$" must precede "$"; "CHF" before any bare symbol scan.
var symbolTable = []struct {
	marker string
	code   string
}{
	{"CHF", "CHF"},
	{"CA$", "CAD"},
	{"C$", "CAD"},
	{"CAD", "CAD"},
	{"US$", "USD"},
	{"USD", "USD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"JPY", "JPY"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"円", "JPY"},
	{"$", "USD"},
}

// DetectCode scans text for a currency marker and returns its ISO 4217 code,
// or "" when no marker is present.
func DetectCode(text string) string {
	for _, e := range symbolTable {
		if strings.Contains(text, e.marker) {
			return e.code
		}
	}
	return ""
}
