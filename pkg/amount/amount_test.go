package amount

import (
	"math/big"
	"testing"
	"time"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string // base units, decimal string
		wantErr bool
	}{
		{name: "whole number", raw: "100", want: "100000000000000000000"},
		{name: "fraction", raw: "0.5", want: "500000000000000000"},
		{name: "zero", raw: "0", want: "0"},
		{name: "with surrounding spaces", raw: " 2 ", want: "2000000000000000000"},
		{name: "truncates beyond 18 places", raw: "1.0000000000000000019", want: "1000000000000000001"},
		{name: "empty", raw: "", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "trailing dot", raw: "1.", wantErr: true},
		{name: "scientific notation rejected", raw: "1e18", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimal(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			want, _ := new(big.Int).SetString(tt.want, 10)
			if got.Cmp(want) != 0 {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

// Parsing a decimal string and formatting it back must round to the same
// value within the formatter's fixed precision.
func TestParseFormatRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "1", "50", "1234.56789", "0.25", "999999.99999"} {
		wei, err := ParseDecimal(raw)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) failed: %v", raw, err)
		}
		shown := FormatFixed(wei, 5)
		back, err := ParseDecimal(shown)
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", shown, err)
		}
		diff := new(big.Int).Abs(new(big.Int).Sub(wei, back))
		// half of 10^-5 units in base units
		tolerance, _ := new(big.Int).SetString("5000000000000", 10)
		if diff.Cmp(tolerance) > 0 {
			t.Errorf("round trip of %q drifted by %s base units", raw, diff)
		}
	}
}

func TestFormat(t *testing.T) {
	unit := OneUnit()
	mul := func(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), unit) }

	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{name: "zero", wei: big.NewInt(0), want: "0"},
		{name: "small", wei: mul(42), want: "42"},
		{name: "thousands", wei: mul(1500), want: "1.5k"},
		{name: "millions", wei: mul(2_340_000), want: "2.34M"},
		{name: "billions", wei: mul(1_000_000_000), want: "1B"},
		{name: "trillions", wei: mul(7_200_000_000_000), want: "7.2T"},
		{name: "dust", wei: big.NewInt(1), want: "<0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.wei); got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.wei, got, tt.want)
			}
		})
	}
}

func TestFormatFixed(t *testing.T) {
	fifty := new(big.Int).Mul(big.NewInt(50), OneUnit())
	if got := FormatFixed(fifty, 5); got != "50.00000" {
		t.Errorf("FormatFixed(50e18, 5) = %q, want %q", got, "50.00000")
	}
}

func TestRelative(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{name: "seconds", t: now.Add(-10 * time.Second), want: "just now"},
		{name: "minutes", t: now.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", t: now.Add(-3 * time.Hour), want: "3h ago"},
		{name: "days", t: now.Add(-49 * time.Hour), want: "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relative(tt.t); got != tt.want {
				t.Errorf("Relative() = %q, want %q", got, tt.want)
			}
		})
	}
}
