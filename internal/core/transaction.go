package core

import (
	"fmt"
	"strings"
)

// Transaction is a recurring cash-flow rule bound to a source account.
//
// SampleDate is the anchor the occurrence matcher tests against; it drifts
// toward the simulated timeline as the rule is evaluated.
type Transaction struct {
	Description string
	Amount      Money
	Frequency   Frequency
	SampleDate  Date
	// Until is the last day the rule may fire. The zero Date means the rule
	// recurs forever.
	Until  Date
	Source string
}

var _ TransferSource = (*Transaction)(nil)

// NewTransaction validates a transaction record. Deductions are stored with a
// negative amount, payments with a positive one.
func NewTransaction(rec TransactionRecord) (*Transaction, error) {
	desc := strings.TrimSpace(rec.Description)
	fail := func(field, value string, err error) error {
		return &ValidationError{Record: fmt.Sprintf("transaction %q", desc), Field: field, Value: value, Err: err}
	}

	amount, err := ParseCurrency(rec.Amount)
	if err != nil {
		return nil, fail("Amount", rec.Amount, err)
	}
	typ, err := ParseTransactionType(rec.Type)
	if err != nil {
		return nil, fail("Type", rec.Type, err)
	}
	if typ == Deduction {
		amount = amount.Neg()
	}
	freq, err := ParseFrequency(rec.Occurrence)
	if err != nil {
		return nil, fail("Occurrence", rec.Occurrence, err)
	}
	sample, err := ParseDate(rec.SampleDate)
	if err != nil {
		return nil, fail("Sample_Date", rec.SampleDate, err)
	}
	var until Date
	if strings.TrimSpace(rec.Until) != "" {
		if until, err = ParseDate(rec.Until); err != nil {
			return nil, fail("Until", rec.Until, err)
		}
	}
	source := strings.TrimSpace(rec.Source)
	if source == "" {
		return nil, fail("Source", rec.Source, ErrMissingField)
	}

	return &Transaction{
		Description: desc,
		Amount:      amount,
		Frequency:   freq,
		SampleDate:  sample,
		Until:       until,
		Source:      source,
	}, nil
}

func (t *Transaction) String() string { return t.Description }

// Clone returns an independent copy, anchor included.
func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// TransferAmount is the fixed signed amount moved on each occurrence.
func (t *Transaction) TransferAmount() Money { return t.Amount }

// Forever reports whether the rule has no expiration date.
func (t *Transaction) Forever() bool { return t.Until.IsZero() }

// ExpiredOn reports whether day is strictly after the rule's until date.
func (t *Transaction) ExpiredOn(day Date) bool {
	return !t.Forever() && t.Until.Before(day)
}

// EndsOn reports whether day is the last day (or later) the rule may fire.
func (t *Transaction) EndsOn(day Date) bool {
	return !t.Forever() && !t.Until.After(day)
}
