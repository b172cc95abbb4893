package forecast

import (
	"context"
	"errors"
	"testing"

	"budgetcast/internal/core"
)

func TestRunAll_IndependentRuns(t *testing.T) {
	base := mustState(t, householdRecords())
	start := core.NewDate(2023, 1, 1)
	plans := []Options{
		{Start: start, Horizon: 10, CheckCycles: 1},
		{Start: start, Horizon: 60, CheckCycles: 1},
		{Start: start, Horizon: 10, CheckCycles: 1},
	}

	results, err := RunAll(context.Background(), base, nil, plans)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if len(res.Total.Points) != plans[i].Horizon {
			t.Fatalf("result %d has %d points, want %d", i, len(res.Total.Points), plans[i].Horizon)
		}
	}
	for i := 0; i < 10; i++ {
		a, b, c := results[0].Total.Points[i], results[1].Total.Points[i], results[2].Total.Points[i]
		if a.Balance != b.Balance || a.Balance != c.Balance {
			t.Fatalf("day %d diverges: %s %s %s", i, a.Balance, b.Balance, c.Balance)
		}
	}
	if results[0].RunID == results[2].RunID {
		t.Error("runs share a run id")
	}

	chk, _ := base.Accounts.Lookup("test", "Checking")
	if chk.Balance.Cents != 100000 {
		t.Errorf("base state mutated: checking %s", chk.Balance)
	}
}

func TestRunAll_FirstErrorWins(t *testing.T) {
	base := mustState(t, core.Records{
		Accounts: []core.AccountRecord{checking("Checking", "100")},
		Transactions: []core.TransactionRecord{
			rule("Mystery", "1d", "1", "deduction", "2023-01-01", "Nowhere", ""),
		},
	})
	_, err := RunAll(context.Background(), base, nil, []Options{
		{Start: core.NewDate(2023, 1, 1), Horizon: 5},
		{Start: core.NewDate(2023, 1, 1), Horizon: 5},
	})
	if !errors.Is(err, core.ErrUnknownAccount) {
		t.Fatalf("err = %v, want unknown account", err)
	}
}
