package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// Frequency is a recurrence interval measured in whole days.
type Frequency int

// Days returns the interval length in days.
func (f Frequency) Days() int { return int(f) }

func (f Frequency) String() string {
	if f%7 == 0 {
		return strconv.Itoa(int(f)/7) + "w"
	}
	return strconv.Itoa(int(f)) + "d"
}

var frequencyUnits = map[string]int{
	"d": 1, "day": 1, "days": 1,
	"w": 7, "week": 7, "weeks": 7,
}

// ParseFrequency parses a sum of day- and week-denominated tokens.
// Tokens are joined by "+" or whitespace; a missing count means 1.
//
// Examples:
//
//	ParseFrequency("2w")      -> 14
//	ParseFrequency("1d+3d")   -> 4
//	ParseFrequency("1w 2d")   -> 9
func ParseFrequency(s string) (Frequency, error) {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '+' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty expression", ErrInvalidFrequency)
	}
	total := 0
	for _, tok := range tokens {
		i := strings.IndexFunc(tok, func(r rune) bool { return !unicode.IsDigit(r) })
		if i < 0 {
			return 0, fmt.Errorf("%w: token %q has no unit", ErrInvalidFrequency, tok)
		}
		count := 1
		if i > 0 {
			n, err := strconv.Atoi(tok[:i])
			if err != nil {
				return 0, fmt.Errorf("%w: token %q: %v", ErrInvalidFrequency, tok, err)
			}
			count = n
		}
		mult, ok := frequencyUnits[tok[i:]]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidFrequency, tok[i:])
		}
		total += count * mult
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidFrequency, s)
	}
	return Frequency(total), nil
}

// ParseDate accepts the loose date formats found in spreadsheets and CSV
// exports ("2023-01-31", "1/31/2023", "Jan 31, 2023", ...) and returns the
// calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return DateOf(t), nil
}
