package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// FIELD NORMALIZER — Header, category and numeric cleaning
// ============================================================================
// Sheet cells arrive as free text. Headers drift between revisions (stray
// whitespace, line breaks inside a cell, different parenthesis text), amounts
// carry a currency glyph and thousands separators. Nothing here returns an
// error: a value that cannot be cleaned is reported as missing.
// ============================================================================

// DefaultCurrencyGlyph is stripped from numeric cells when no glyphs are given.
const DefaultCurrencyGlyph = "₦"

// numericNoise is always stripped from numeric cells.
var numericNoise = []string{",", "\u00a0", "\u202f", "\u2007"}

// NormalizeHeader folds a raw header to its canonical form: NFKC (non-breaking
// spaces become plain spaces), whitespace runs collapsed, trimmed, upper-cased.
// NormalizeHeader(NormalizeHeader(s)) == NormalizeHeader(s).
func NormalizeHeader(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToUpper(s)
}

// NormalizeCategory returns the comparison form of a categorical cell.
// Case is kept; only surrounding whitespace is removed.
func NormalizeCategory(s string) string {
	return strings.TrimSpace(s)
}

// ParseNumeric parses a currency-formatted or plain number. The given glyphs
// (DefaultCurrencyGlyph if none), comma separators and non-breaking spaces
// are removed first. ok is false for empty or unparsable text.
func ParseNumeric(s string, glyphs ...string) (float64, bool) {
	d, ok := ParseDecimal(s, glyphs...)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseDecimal is ParseNumeric returning the exact decimal value.
func ParseDecimal(s string, glyphs ...string) (decimal.Decimal, bool) {
	if len(glyphs) == 0 {
		glyphs = []string{DefaultCurrencyGlyph}
	}
	for _, g := range glyphs {
		if g != "" {
			s = strings.ReplaceAll(s, g, "")
		}
	}
	for _, n := range numericNoise {
		s = strings.ReplaceAll(s, n, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ResolveHeader finds the column for a logical field phrase. Both sides are
// normalized; an exact match wins, otherwise the first header containing the
// phrase. Returns "" when nothing matches.
func ResolveHeader(headers []string, phrase string) string {
	want := NormalizeHeader(phrase)
	if want == "" {
		return ""
	}
	for _, h := range headers {
		if NormalizeHeader(h) == want {
			return NormalizeHeader(h)
		}
	}
	for _, h := range headers {
		if nh := NormalizeHeader(h); strings.Contains(nh, want) {
			return nh
		}
	}
	return ""
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
