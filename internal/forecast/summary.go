package forecast

import "budgetcast/internal/core"

// Summary condenses a result for storage and messaging.
type Summary struct {
	RunID      string
	Start      core.Date
	Horizon    int
	FinalTotal core.Money
	// MinTotal is the lowest total over the horizon and MinDate the first day
	// it was reached.
	MinTotal core.Money
	MinDate  core.Date
	Final    []AccountBalance
	Warnings int
}

// AccountBalance is an account's balance on the last simulated day.
type AccountBalance struct {
	Name    string
	Type    core.AccountType
	Balance core.Money
}

// Summary computes the digest of r. A zero-horizon result has zero totals.
func (r *Result) Summary() Summary {
	s := Summary{RunID: r.RunID, Start: r.Start, Horizon: r.Horizon}
	for i, p := range r.Total.Points {
		if i == 0 || p.Balance.Cents < s.MinTotal.Cents {
			s.MinTotal = p.Balance
			s.MinDate = p.Date
		}
		s.FinalTotal = p.Balance
	}
	for _, series := range r.Accounts {
		ab := AccountBalance{Name: series.Name, Type: series.Type}
		if n := len(series.Points); n > 0 {
			ab.Balance = series.Points[n-1].Balance
		}
		s.Final = append(s.Final, ab)
	}
	for _, e := range r.Events {
		if e.Warning() {
			s.Warnings++
		}
	}
	return s
}
