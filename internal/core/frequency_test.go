package core

import (
	"errors"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"1d", 1, false},
		{"2w", 14, false},
		{"1d+3d", 4, false},
		{"1w 2d", 9, false},
		{"1w + 1w", 14, false},
		{"W", 7, false},
		{"3 days", 0, true}, // "3" has no unit
		{"2weeks", 14, false},
		{"30d", 30, false},
		{"", 0, true},
		{"0d", 0, true},
		{"2m", 0, true},
		{"d2", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrequency(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFrequency) {
					t.Fatalf("ParseFrequency(%q) error = %v, want ErrInvalidFrequency", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFrequency(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFrequencyString(t *testing.T) {
	if got := Frequency(14).String(); got != "2w" {
		t.Errorf("got %q", got)
	}
	if got := Frequency(4).String(); got != "4d" {
		t.Errorf("got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	want := NewDate(2023, 1, 31)
	for _, in := range []string{"2023-01-31", "1/31/2023", "01/31/2023", "Jan 31, 2023", "2023-01-31 08:30:00"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", in, err)
			continue
		}
		if !got.SameDay(want) {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}
	for _, in := range []string{"", "not a date"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
}
