package handlers

import "testing"

func TestAmountTrimsTrailingZeros(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{499, "499"},
		{499.5, "499.5"},
		{0.05, "0.05"},
		{1200.00, "1200"},
	}
	for _, tc := range cases {
		if got := amount(tc.in); got != tc.want {
			t.Errorf("amount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOrderDir(t *testing.T) {
	if orderDir("dsc") != "desc" {
		t.Error("dsc must map to desc")
	}
	if orderDir("asc") != "asc" || orderDir("") != "asc" {
		t.Error("anything else defaults to asc")
	}
}

func TestStrVal(t *testing.T) {
	if strVal(nil) != "" {
		t.Error("nil must render empty")
	}
	s := "tea"
	if strVal(&s) != "tea" {
		t.Error("pointer must deref")
	}
}
