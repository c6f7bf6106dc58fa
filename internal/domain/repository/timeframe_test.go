package repository

import "testing"

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range []Timeframe{TF1m, TF5m, TF15m, TF1h, TF4h} {
		if !IsValidTimeframe(tf) {
			t.Fatalf("%s should be valid", tf)
		}
	}
	for _, tf := range []Timeframe{"", "2m", "1d", "5M"} {
		if IsValidTimeframe(tf) {
			t.Fatalf("%q should be invalid", tf)
		}
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	cases := map[string]Timeframe{
		"":    TF5m,
		"1m":  TF1m,
		"4h":  TF4h,
		"bad": TF5m,
	}
	for in, want := range cases {
		if got := NormalizeTimeframe(in); got != want {
			t.Fatalf("normalize(%q) = %s, want %s", in, got, want)
		}
	}
}
