package utils

import (
	"testing"
	"time"
)

func TestBusinessDate_UsesConfiguredTimezone(t *testing.T) {
	t.Setenv("POS_TIMEZONE", "Asia/Yangon")

	// 18:00 UTC is already 00:30 next day in Yangon (+06:30)
	utcEvening := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	if got := BusinessDate(utcEvening); got != "2026-03-11" {
		t.Fatalf("expected 2026-03-11, got %s", got)
	}

	utcMorning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := BusinessDate(utcMorning); got != "2026-03-10" {
		t.Fatalf("expected 2026-03-10, got %s", got)
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"3500", "3500", false},
		{"12.5000", "12.5", false},
		{"-7", "-7", false},
		{"abc", "", true},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDecimal(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}
