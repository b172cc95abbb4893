package core

import (
	"errors"
	"testing"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"$123.45", 12345, true},
		{" $2.50 ", 250, true},
		{"$1,234.56", 123456, true},
		{"0", 0, true},
		{"$0.00", 0, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{"-$5", -500, true},
		{"$-5", -500, true},
		{"(12.34)", -1234, true},
		{"+7", 700, true},
		{"", 0, false},
		{"$", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"12$", 0, false},
		{"nan", 0, false},
		{"$1,234,567.89", 123456789, true},
		{"1,2,3", 0, false},
		{"12,34", 0, false},
		{",123", 0, false},
		{"1234,567", 0, false},
		{"1.2,3", 0, false},
		{"$1.٥", 0, false},  // Arabic-Indic five
		{"$1.2٥", 0, false},
		{"١٢", 0, false},
		{"１", 0, false}, // fullwidth one
	}
	for _, tc := range cases {
		got, err := ParseCurrency(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %d (err=%v)", tc.in, got.Cents, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:       "$0.00",
		5:       "$0.05",
		12345:   "$123.45",
		-20000:  "-$200.00",
		-100001: "-$1000.01",
	}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Errorf("Cents(%d).String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Cents(500), Cents(-200)
	if got := a.Add(b); got.Cents != 300 {
		t.Fatalf("Add = %d", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 700 {
		t.Fatalf("Sub = %d", got.Cents)
	}
	if got := b.Abs(); got.Cents != 200 {
		t.Fatalf("Abs = %d", got.Cents)
	}
	if !b.IsNegative() || a.IsNegative() {
		t.Fatal("IsNegative mismatch")
	}
	if got := Cents(150).Dollars(); got != 1.5 {
		t.Fatalf("Dollars = %v", got)
	}
}
