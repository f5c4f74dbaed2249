package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1073.64", 1073.64, true},
		{"1073,64", 1073.64, true},
		{"200_000", 200000, true},
		{" 2.50 ", 2.5, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"0.05", 0.05, true},
		{"5%", 0.05, true},
		{"6.5 %", 0.065, true},
		{"5", 0, false},
		{"x%", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseRate(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestRoundCents(t *testing.T) {
	if got := RoundCents(1073.6432); got != 1073.64 {
		t.Fatalf("expected 1073.64, got %v", got)
	}
	if got := RoundCents(166.666666); got != 166.67 {
		t.Fatalf("expected 166.67, got %v", got)
	}
}
