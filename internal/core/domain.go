package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Checking AccountType = "CHECKING"
	Credit   AccountType = "CREDIT"
)

const (
	Deduction TransactionType = "deduction"
	Payment   TransactionType = "payment"
)

// DateLayout is the canonical date format used for output and storage.
const DateLayout = "2006-01-02"

type (
	AccountType     string
	TransactionType string

	// Date is a calendar day normalized to UTC midnight.
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents.
	Money struct {
		Cents int64
	}

	// AccountRecord is one raw account row as supplied by a record source.
	AccountRecord struct {
		AccountName  string
		Balance      string
		Type         string
		PayoffDay    string
		PayoffSource string
		CreditLimit  string
	}

	// TransactionRecord is one raw recurring-transaction row.
	TransactionRecord struct {
		Description string
		Occurrence  string
		Amount      string
		Type        string
		SampleDate  string
		Source      string
		Until       string
	}

	// Records is everything a forecast needs from the outside world.
	Records struct {
		Accounts     []AccountRecord
		Transactions []TransactionRecord
	}
)

var (
	ErrUnknownAccountType     = errors.New("unknown account type")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidPayoffDay       = errors.New("payoff day must be between 1 and 27")
	ErrInvalidCreditLimit     = errors.New("credit limit must be positive")
	ErrMissingField           = errors.New("missing required field")
	ErrEmptyName              = errors.New("empty account name")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrDuplicateAccount       = errors.New("duplicate account name")
)

// ValidationError reports a record field that could not be turned into a
// domain value. It is fatal at construction time.
type ValidationError struct {
	Record string
	Field  string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %s=%q: %v", e.Record, e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReferenceError reports an account name that does not resolve in the registry.
type ReferenceError struct {
	// Role describes who holds the dangling reference, e.g. "transaction source".
	Role  string
	Name  string
	Known []string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q is not an account in [%s]", e.Role, e.Name, strings.Join(e.Known, ", "))
}

func (e *ReferenceError) Unwrap() error { return ErrUnknownAccount }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// AddDays returns d shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the signed number of calendar days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time.Sub(other.Time).Hours() / 24)
}

// SameDay reports whether both dates fall on the same day, month and year.
func (d Date) SameDay(other Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return d1 == d2 && m1 == m2 && y1 == y2
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

func (d Date) String() string {
	return d.Format(DateLayout)
}

// ParseAccountType accepts "checking" or "credit" in any case.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Checking, Credit:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q: must be checking or credit", ErrUnknownAccountType, s)
	}
}

// ParseTransactionType accepts "deduction" or "payment" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Deduction, Payment:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q: must be deduction or payment", ErrUnknownTransactionType, s)
	}
}
