package models

import "testing"

func TestNormalizePaymentMethod(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"cash", "cash"},
		{"CASH", "cash"},
		{"  Card ", "card"},
		{"bank", "card"},
		{"Bank", "card"},
		{"cheque", "cheque"},
		{"kbzpay", "kbzpay"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePaymentMethod(tc.in); got != tc.expected {
			t.Fatalf("NormalizePaymentMethod(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestIsSystemAccountKey(t *testing.T) {
	for _, key := range SystemAccountKeys() {
		if !isSystemAccountKey(key) {
			t.Fatalf("%q should be a system key", key)
		}
	}
	if isSystemAccountKey("kbzpay") {
		t.Fatal("kbzpay is not a system key")
	}
	if isSystemAccountKey("") {
		t.Fatal("empty key marks the session main account, not a system key")
	}
}
