package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// FORMATTING UTILITIES — presentation helpers, never used in computation
// ============================================================================

// FormatCurrency formats an amount as glyph + comma-grouped two-decimal
// number: FormatCurrency(1234.5, "₦") == "₦1,234.50".
func FormatCurrency(amount float64, glyph string) string {
	s := FormatAmount(amount)
	if strings.HasPrefix(s, "-") {
		return "-" + glyph + s[1:]
	}
	return glyph + s
}

// FormatAmount formats an amount with comma separators and two decimals.
func FormatAmount(amount float64) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intStr, decStr, _ := strings.Cut(fixed, ".")

	if len(intStr) > 3 {
		var parts []string
		for len(intStr) > 3 {
			parts = append([]string{intStr[len(intStr)-3:]}, parts...)
			intStr = intStr[:len(intStr)-3]
		}
		parts = append([]string{intStr}, parts...)
		intStr = strings.Join(parts, ",")
	}

	result := intStr + "." + decStr
	if negative && strings.Trim(result, "0.,") != "" {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatKPI renders a KPI value the way the dashboard cards show it:
// currency for sums, grouped integer for counts, one decimal for means.
// A suffix such as "/ 5" follows the value after a space.
func FormatKPI(k KPI, glyph string) string {
	var s string
	switch k.Kind {
	case KPICount:
		s = FormatInt(int(k.Value))
	case KPIMean:
		s = decimal.NewFromFloat(k.Value).StringFixed(1)
	default:
		s = FormatCurrency(k.Value, glyph)
	}
	if k.Suffix != "" {
		s += " " + k.Suffix
	}
	return s
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
