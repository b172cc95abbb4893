package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TransferSource is anything that can hand an amount to an account: a
// transaction yields its fixed amount, an account yields its whole balance.
type TransferSource interface {
	TransferAmount() Money
}

// Account holds a balance. Credit balances are negative while money is owed.
type Account struct {
	Name    string
	Balance Money
	Type    AccountType

	// Credit accounts only.
	PaybackDay    int
	PaybackSource string
	CreditLimit   Money
}

var _ TransferSource = (*Account)(nil)

// NewAccount validates an account record and builds the account. Credit
// opening balances are negated so that debt is stored as a negative number.
func NewAccount(rec AccountRecord) (*Account, error) {
	name := strings.TrimSpace(rec.AccountName)
	if name == "" {
		return nil, &ValidationError{Record: "account", Field: "AccountName", Value: rec.AccountName, Err: ErrEmptyName}
	}
	fail := func(field, value string, err error) error {
		return &ValidationError{Record: "account " + name, Field: field, Value: value, Err: err}
	}

	balance, err := ParseCurrency(rec.Balance)
	if err != nil {
		return nil, fail("Balance", rec.Balance, err)
	}
	typ, err := ParseAccountType(rec.Type)
	if err != nil {
		return nil, fail("Type", rec.Type, err)
	}

	a := &Account{Name: name, Balance: balance, Type: typ}
	if typ != Credit {
		return a, nil
	}

	a.Balance = balance.Neg()

	day, err := parsePayoffDay(rec.PayoffDay)
	if err != nil {
		return nil, fail("PayoffDay", rec.PayoffDay, err)
	}
	a.PaybackDay = day

	a.PaybackSource = strings.TrimSpace(rec.PayoffSource)
	if a.PaybackSource == "" {
		return nil, fail("PayoffSource", rec.PayoffSource, ErrMissingField)
	}

	limit, err := ParseCurrency(rec.CreditLimit)
	if err != nil {
		return nil, fail("CreditLimit", rec.CreditLimit, err)
	}
	if limit.Cents <= 0 {
		return nil, fail("CreditLimit", rec.CreditLimit, ErrInvalidCreditLimit)
	}
	a.CreditLimit = limit
	return a, nil
}

// parsePayoffDay accepts "15" as well as "15.0", which spreadsheet exports
// produce for numeric columns.
func parsePayoffDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingField
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, ErrInvalidPayoffDay
	}
	day := int(f)
	if day < 1 || day > 27 {
		return 0, ErrInvalidPayoffDay
	}
	return day, nil
}

func (a *Account) String() string {
	return fmt.Sprintf("%s: %s", a.Name, a.Balance)
}

// Clone returns an independent copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// TransferAmount is the account's full current balance.
func (a *Account) TransferAmount() Money { return a.Balance }

// Apply adds the amount offered by src to the balance.
func (a *Account) Apply(src TransferSource, sink EventSink) {
	a.ApplyTransfer(src.TransferAmount(), sink)
}

// ApplyTransfer adds a signed delta to the balance and reports credit
// utilization above 20% or a checking overdraft.
func (a *Account) ApplyTransfer(delta Money, sink EventSink) {
	a.Balance = a.Balance.Add(delta)

	switch a.Type {
	case Credit:
		if a.CreditLimit.Cents <= 0 {
			return
		}
		debt := a.Balance.Abs().Cents
		// debt/limit > 200/1000, compared without division
		if debt*1000 > UtilizationWarnPerMille*a.CreditLimit.Cents {
			perMille := int64(math.Round(float64(debt) * 1000 / float64(a.CreditLimit.Cents)))
			emit(sink, Event{
				Kind:        EventCreditUtilization,
				Account:     a.Name,
				Balance:     a.Balance,
				Utilization: perMille,
				Message: fmt.Sprintf("%s: debt/limit ratio is %d.%d%%, anything over 20%% may hurt your credit score",
					a, perMille/10, perMille%10),
			})
		}
	case Checking:
		if a.Balance.IsNegative() {
			emit(sink, Event{
				Kind:    EventOverdraft,
				Account: a.Name,
				Balance: a.Balance,
				Message: fmt.Sprintf("%s has just overdrafted", a),
			})
		}
	}
}

// SettleAgainst credits a with other's whole balance and reduces other's
// balance by the same amount. The amount moves rather than being zeroed so a
// partial settlement stays representable.
func (a *Account) SettleAgainst(other *Account, sink EventSink) {
	amount := other.TransferAmount()
	a.ApplyTransfer(amount, sink)
	other.Balance = other.Balance.Sub(amount)
}

// PayoffCreditAccount pays the full outstanding debt of credit from a.
// a must be a checking account and credit a credit account; any other
// combination leaves both balances untouched and emits a warning.
func (a *Account) PayoffCreditAccount(credit *Account, sink EventSink) bool {
	if credit.Type != Credit {
		emit(sink, Event{
			Kind:    EventInvalidPayoff,
			Account: credit.Name,
			Balance: credit.Balance,
			Message: fmt.Sprintf("cannot pay off %s type account %s, skipping", credit.Type, credit.Name),
		})
		return false
	}
	if a.Type != Checking {
		emit(sink, Event{
			Kind:    EventInvalidPayoff,
			Account: a.Name,
			Balance: a.Balance,
			Message: fmt.Sprintf("credit account %s must be paid off from a checking account, %s is %s; skipping",
				credit.Name, a.Name, a.Type),
		})
		return false
	}

	owed := credit.Balance
	a.SettleAgainst(credit, sink)
	emit(sink, Event{
		Kind:    EventPayoff,
		Account: credit.Name,
		Balance: credit.Balance,
		Message: fmt.Sprintf("credit account %s was paid off from %s (%s)", credit.Name, a.Name, owed.Neg()),
	})
	return true
}
