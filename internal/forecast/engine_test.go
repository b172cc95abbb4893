package forecast

import (
	"context"
	"errors"
	"testing"

	"budgetcast/internal/core"
)

func checking(name, balance string) core.AccountRecord {
	return core.AccountRecord{AccountName: name, Balance: balance, Type: "checking"}
}

func credit(name, balance, payoffDay, source, limit string) core.AccountRecord {
	return core.AccountRecord{
		AccountName:  name,
		Balance:      balance,
		Type:         "credit",
		PayoffDay:    payoffDay,
		PayoffSource: source,
		CreditLimit:  limit,
	}
}

func rule(desc, occurrence, amount, typ, sample, source, until string) core.TransactionRecord {
	return core.TransactionRecord{
		Description: desc,
		Occurrence:  occurrence,
		Amount:      amount,
		Type:        typ,
		SampleDate:  sample,
		Source:      source,
		Until:       until,
	}
}

func mustState(t *testing.T, records core.Records) *State {
	t.Helper()
	s, err := NewState(records)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func run(t *testing.T, state *State, start core.Date, horizon int) (*Result, *Simulation) {
	t.Helper()
	sim := NewSimulation(state, nil)
	res, err := Run(context.Background(), sim, Options{Start: start, Horizon: horizon, CheckCycles: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, sim
}

func householdRecords() core.Records {
	return core.Records{
		Accounts: []core.AccountRecord{
			checking("Checking", "$1,000.00"),
			credit("Visa", "200", "15", "Checking", "1000"),
		},
		Transactions: []core.TransactionRecord{
			rule("Paycheck", "2w", "1500", "payment", "2023-01-06", "Checking", ""),
			rule("Groceries", "1w", "100", "deduction", "2023-01-02", "Visa", ""),
			rule("Rent", "4w", "900", "deduction", "2023-01-03", "Checking", ""),
		},
	}
}

func series(t *testing.T, res *Result, name string) Series {
	t.Helper()
	for _, s := range res.Accounts {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no series for %s", name)
	return Series{}
}

func TestRun_TotalIsSumOfAccounts(t *testing.T) {
	res, _ := run(t, mustState(t, householdRecords()), core.NewDate(2023, 1, 1), 45)

	if len(res.Total.Points) != 45 {
		t.Fatalf("total has %d points, want 45", len(res.Total.Points))
	}
	for i, p := range res.Total.Points {
		var sum int64
		for _, s := range res.Accounts {
			if len(s.Points) != 45 {
				t.Fatalf("%s has %d points, want 45", s.Name, len(s.Points))
			}
			if !s.Points[i].Date.SameDay(p.Date) {
				t.Fatalf("%s point %d dated %s, total dated %s", s.Name, i, s.Points[i].Date, p.Date)
			}
			sum += s.Points[i].Balance.Cents
		}
		if sum != p.Balance.Cents {
			t.Fatalf("day %s: total %d, sum of accounts %d", p.Date, p.Balance.Cents, sum)
		}
	}
	if res.Total.Name != TotalSeriesName {
		t.Errorf("total series name = %q", res.Total.Name)
	}
}

func TestRun_Deterministic(t *testing.T) {
	start := core.NewDate(2023, 1, 1)
	a, _ := run(t, mustState(t, householdRecords()), start, 60)
	b, _ := run(t, mustState(t, householdRecords()), start, 60)

	for i := range a.Total.Points {
		if a.Total.Points[i].Balance != b.Total.Points[i].Balance {
			t.Fatalf("day %d differs: %s vs %s", i, a.Total.Points[i].Balance, b.Total.Points[i].Balance)
		}
	}
	if len(a.Events) != len(b.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(a.Events), len(b.Events))
	}
}

func TestRun_SeriesFollowRegistryOrder(t *testing.T) {
	res, _ := run(t, mustState(t, householdRecords()), core.NewDate(2023, 1, 1), 1)
	if len(res.Accounts) != 2 || res.Accounts[0].Name != "Checking" || res.Accounts[1].Name != "Visa" {
		t.Fatalf("series order = %+v", res.Accounts)
	}
	if res.Accounts[1].Type != core.Credit {
		t.Errorf("Visa series type = %s", res.Accounts[1].Type)
	}
}

func TestRun_UntilAppliesOnLastDayThenPrunes(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{checking("Checking", "100")},
		Transactions: []core.TransactionRecord{
			rule("Coffee", "1d", "5", "deduction", "2023-01-01", "Checking", "2023-01-05"),
		},
	})
	res, sim := run(t, state, core.NewDate(2023, 1, 1), 10)

	got := series(t, res, "Checking").Points
	want := []int64{9500, 9000, 8500, 8000, 7500, 7500, 7500, 7500, 7500, 7500}
	for i, w := range want {
		if got[i].Balance.Cents != w {
			t.Fatalf("day %s balance = %d, want %d", got[i].Date, got[i].Balance.Cents, w)
		}
	}
	if n := len(sim.State.Transactions); n != 0 {
		t.Fatalf("%d transactions left after until date, want 0", n)
	}
}

func TestRun_ExpiredBeforeStartNeverApplies(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{checking("Checking", "100")},
		Transactions: []core.TransactionRecord{
			rule("Old gym", "1d", "30", "deduction", "2022-12-01", "Checking", "2022-12-31"),
		},
	})
	res, _ := run(t, state, core.NewDate(2023, 1, 1), 3)
	for _, p := range series(t, res, "Checking").Points {
		if p.Balance.Cents != 10000 {
			t.Fatalf("day %s balance = %s, want $100.00", p.Date, p.Balance)
		}
	}
}

func TestRun_PayoffSweep(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{
			checking("Checking", "500"),
			credit("Visa", "200", "15", "Checking", "1000"),
		},
	})
	res, _ := run(t, state, core.NewDate(2023, 1, 10), 10)

	chk := series(t, res, "Checking").Points
	visa := series(t, res, "Visa").Points
	if chk[4].Balance.Cents != 50000 || visa[4].Balance.Cents != -20000 {
		t.Fatalf("before payoff: checking %s, visa %s", chk[4].Balance, visa[4].Balance)
	}
	if chk[5].Balance.Cents != 30000 || visa[5].Balance.Cents != 0 {
		t.Fatalf("payoff day: checking %s, visa %s", chk[5].Balance, visa[5].Balance)
	}
	for _, p := range res.Total.Points {
		if p.Balance.Cents != 30000 {
			t.Fatalf("total on %s = %s, payoff must not change the total", p.Date, p.Balance)
		}
	}

	if len(res.Events) != 1 {
		t.Fatalf("events = %+v, want one payoff", res.Events)
	}
	e := res.Events[0]
	if e.Kind != core.EventPayoff || e.Account != "Visa" || !e.Date.SameDay(core.NewDate(2023, 1, 15)) {
		t.Fatalf("event = %+v", e)
	}
}

func TestRun_PayoffFromCreditAccountIsSkipped(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{
			credit("Amex", "100", "20", "Visa", "1000"),
			credit("Visa", "50", "27", "Amex", "1000"),
		},
	})
	res, _ := run(t, state, core.NewDate(2023, 1, 20), 1)

	if got := series(t, res, "Amex").Points[0].Balance.Cents; got != -10000 {
		t.Fatalf("Amex = %d, want unchanged -10000", got)
	}
	if len(res.Events) != 1 || res.Events[0].Kind != core.EventInvalidPayoff {
		t.Fatalf("events = %+v, want one invalid payoff warning", res.Events)
	}
}

func TestRun_Warnings(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{
			checking("Checking", "10"),
			credit("Visa", "0", "27", "Checking", "1000"),
		},
		Transactions: []core.TransactionRecord{
			rule("Phone", "1w", "20", "deduction", "2023-01-01", "Checking", ""),
			rule("Flight", "4w", "300", "deduction", "2023-01-01", "Visa", ""),
		},
	})
	res, _ := run(t, state, core.NewDate(2023, 1, 1), 1)

	if len(res.Events) != 2 {
		t.Fatalf("events = %+v, want overdraft and utilization", res.Events)
	}
	if e := res.Events[0]; e.Kind != core.EventOverdraft || e.Balance.Cents != -1000 {
		t.Errorf("first event = %+v", e)
	}
	if e := res.Events[1]; e.Kind != core.EventCreditUtilization || e.Utilization != 300 {
		t.Errorf("second event = %+v", e)
	}
	for _, e := range res.Events {
		if !e.Warning() {
			t.Errorf("%s should be a warning", e.Kind)
		}
	}
}

func TestRun_UnknownTransactionSource(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{checking("Checking", "100")},
		Transactions: []core.TransactionRecord{
			rule("Mystery", "1d", "1", "deduction", "2023-01-01", "Savings", ""),
		},
	})
	res, err := Run(context.Background(), NewSimulation(state, nil), Options{Start: core.NewDate(2023, 1, 1), Horizon: 5})
	if res != nil {
		t.Fatal("expected no result on reference error")
	}
	var ref *core.ReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("err = %v, want *core.ReferenceError", err)
	}
	if ref.Name != "Savings" || ref.Role != "transaction source" {
		t.Errorf("reference error = %+v", ref)
	}
	if !errors.Is(err, core.ErrUnknownAccount) {
		t.Error("reference error should match ErrUnknownAccount")
	}
}

func TestRun_UnknownPayoffSource(t *testing.T) {
	state := mustState(t, core.Records{
		Accounts: []core.AccountRecord{credit("Visa", "10", "2", "Ghost", "100")},
	})
	_, err := Run(context.Background(), NewSimulation(state, nil), Options{Start: core.NewDate(2023, 1, 1), Horizon: 5})
	var ref *core.ReferenceError
	if !errors.As(err, &ref) || ref.Name != "Ghost" {
		t.Fatalf("err = %v, want reference error for Ghost", err)
	}
}

func TestRun_Halting(t *testing.T) {
	t.Run("hook", func(t *testing.T) {
		calls := 0
		opts := Options{
			Start:   core.NewDate(2023, 1, 1),
			Horizon: 10,
			ShouldContinue: func() bool {
				calls++
				return calls <= 3
			},
		}
		res, err := Run(context.Background(), NewSimulation(mustState(t, householdRecords()), nil), opts)
		if !errors.Is(err, ErrHalted) || res != nil {
			t.Fatalf("res=%v err=%v, want ErrHalted and no result", res, err)
		}
	})

	t.Run("context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, NewSimulation(mustState(t, householdRecords()), nil), Options{Start: core.NewDate(2023, 1, 1), Horizon: 10})
		if !errors.Is(err, ErrHalted) || !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRun_Horizon(t *testing.T) {
	state := mustState(t, householdRecords())
	if _, err := Run(context.Background(), NewSimulation(state, nil), Options{Horizon: -1}); !errors.Is(err, ErrInvalidHorizon) {
		t.Fatalf("negative horizon err = %v", err)
	}

	res, err := Run(context.Background(), NewSimulation(state, nil), Options{Start: core.NewDate(2023, 1, 1)})
	if err != nil {
		t.Fatalf("zero horizon: %v", err)
	}
	if len(res.Total.Points) != 0 || len(res.Accounts) != 0 {
		t.Fatalf("zero horizon recorded %+v", res)
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}
}

func TestNewState_ReportsEveryInvalidRecord(t *testing.T) {
	_, err := NewState(core.Records{
		Accounts: []core.AccountRecord{
			checking("Checking", "abc"),
			credit("Visa", "10", "31", "Checking", "100"),
			checking("Savings", "1"),
			checking("Savings", "2"),
		},
		Transactions: []core.TransactionRecord{
			rule("Rent", "monthly", "900", "deduction", "2023-01-01", "Checking", ""),
		},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, target := range []error{core.ErrInvalidAmount, core.ErrInvalidPayoffDay, core.ErrDuplicateAccount, core.ErrInvalidFrequency} {
		if !errors.Is(err, target) {
			t.Errorf("error %q does not include %v", err, target)
		}
	}
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Error("expected a *core.ValidationError in the chain")
	}
}

func TestStateClone_IsIndependent(t *testing.T) {
	base := mustState(t, householdRecords())
	clone := base.Clone()

	run(t, clone, core.NewDate(2023, 1, 1), 30)

	chk, _ := base.Accounts.Lookup("test", "Checking")
	if chk.Balance.Cents != 100000 {
		t.Errorf("base checking mutated to %s", chk.Balance)
	}
	if !base.Transactions[0].SampleDate.SameDay(core.NewDate(2023, 1, 6)) {
		t.Errorf("base anchor moved to %s", base.Transactions[0].SampleDate)
	}
}
