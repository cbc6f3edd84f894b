// Package amount converts between base-unit integer amounts (18 implied
// decimal places) and human-readable display strings. Amounts are held as
// *big.Int internally; floating point only appears at the final, lossy
// display step.
package amount

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Decimals is the implied decimal precision of base-unit amounts.
const Decimals = 18

// decimalPattern matches a plain non-negative decimal number.
var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// oneUnit is 10^18, the base-unit value of one whole coin.
var oneUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// OneUnit returns 10^Decimals as a fresh big.Int.
func OneUnit() *big.Int {
	return new(big.Int).Set(oneUnit)
}

// ParseDecimal converts a human-entered decimal string to base units.
// Empty, malformed, or negative input is rejected; fractional digits beyond
// the 18th are truncated.
func ParseDecimal(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if !decimalPattern.MatchString(raw) {
		return nil, fmt.Errorf("invalid amount %q: expected a non-negative decimal number", raw)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", raw)
	}

	return d.Shift(Decimals).Truncate(0).BigInt(), nil
}

// IsValidDecimal reports whether raw would be accepted by ParseDecimal.
func IsValidDecimal(raw string) bool {
	return decimalPattern.MatchString(strings.TrimSpace(raw))
}

// ToDecimal converts a base-unit amount to whole-coin units.
func ToDecimal(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}

// suffix thresholds, largest first
var scales = []struct {
	value  decimal.Decimal
	suffix string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "k"},
}

// Format renders a base-unit amount as a short display string with k/M/B/T
// suffixes, e.g. 1234.5e18 -> "1.23k". Lossy and one-way.
func Format(wei *big.Int) string {
	d := ToDecimal(wei)
	for _, s := range scales {
		if d.GreaterThanOrEqual(s.value) {
			return trimZeros(d.Div(s.value).StringFixed(2)) + s.suffix
		}
	}
	if d.Equal(decimal.Zero) {
		return "0"
	}
	if d.LessThan(decimal.New(1, -2)) {
		// below display precision
		return "<0.01"
	}
	return trimZeros(d.StringFixed(2))
}

// FormatFixed renders a base-unit amount with a fixed number of decimal
// places, e.g. 50e18 at 5 places -> "50.00000".
func FormatFixed(wei *big.Int, places int) string {
	return ToDecimal(wei).StringFixed(int32(places))
}

// trimZeros drops a trailing ".00" but keeps meaningful fractions.
func trimZeros(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// Relative renders a timestamp as a coarse "time ago" string.
func Relative(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
