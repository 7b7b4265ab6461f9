package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"12,5", 1250, true},
		{"1,000", 0, false},
		{"1,000.50", 0, false},
		{"1,", 0, false},
		{"1,2,3", 0, false},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"42.5", 4250, true},
		{" 2.50 ", 250, true},
		{"1000.00", 100000, true},
		{"-5", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		5:       "0.05",
		4250:    "42.50",
		84950:   "849.50",
		-7500:   "-75.00",
		1234567: "12345.67",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d expected %s, got %s", cents, want, got)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	if got := FormatBalance(Money{Cents: 84950}); got != "Balance: $849.50" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatBalance(Money{Cents: -7500}); got != "Balance: -$75.00" {
		t.Fatalf("unexpected %q", got)
	}
}
