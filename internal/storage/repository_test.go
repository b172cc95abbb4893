package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"budgetcast/internal/core"
	"budgetcast/internal/sheets"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "forecast.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRecords() core.Records {
	return core.Records{
		Accounts: []core.AccountRecord{
			{AccountName: "Checking", Balance: "1000", Type: "checking"},
			{AccountName: "Visa", Balance: "200", Type: "credit", PayoffDay: "15", PayoffSource: "Checking", CreditLimit: "1000"},
		},
		Transactions: []core.TransactionRecord{
			{Description: "Paycheck", Occurrence: "2w", Amount: "1500", Type: "payment", SampleDate: "2023-01-06", Source: "Checking"},
			{Description: "Gym", Occurrence: "1w", Amount: "25", Type: "deduction", SampleDate: "2023-01-02", Source: "Visa", Until: "2023-06-30"},
		},
	}
}

func TestRepository_ReplaceAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("ReplaceRecords: %v", err)
	}
	got, err := sheets.Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := sampleRecords()
	if len(got.Accounts) != 2 || got.Accounts[1] != want.Accounts[1] {
		t.Fatalf("accounts = %+v", got.Accounts)
	}
	if len(got.Transactions) != 2 || got.Transactions[1] != want.Transactions[1] {
		t.Fatalf("transactions = %+v", got.Transactions)
	}

	// A second replace drops the old rows.
	if err := repo.ReplaceRecords(ctx, core.Records{Accounts: want.Accounts[:1]}); err != nil {
		t.Fatalf("ReplaceRecords: %v", err)
	}
	got, _ = sheets.Load(ctx, repo)
	if len(got.Accounts) != 1 || len(got.Transactions) != 0 {
		t.Fatalf("after replace: %+v", got)
	}
}

func TestRepository_ReplaceRollsBackOnDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.ReplaceRecords(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	dup := core.Records{Accounts: []core.AccountRecord{
		{AccountName: "Savings", Balance: "1", Type: "checking"},
		{AccountName: "Savings", Balance: "2", Type: "checking"},
	}}
	err := repo.ReplaceRecords(ctx, dup)
	if err == nil || !strings.Contains(err.Error(), "Savings") {
		t.Fatalf("err = %v, want duplicate failure", err)
	}

	got, _ := sheets.Load(ctx, repo)
	if len(got.Accounts) != 2 || got.Accounts[0].AccountName != "Checking" {
		t.Fatalf("failed replace was not rolled back: %+v", got.Accounts)
	}
}

func TestRepository_Runs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2"} {
		err := repo.SaveRun(ctx, RunSummary{
			RunID:      id,
			Start:      core.NewDate(2023, 1, 1),
			Horizon:    30,
			FinalTotal: core.Cents(125000),
			MinTotal:   core.Cents(-500),
			Warnings:   2,
		})
		if err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := repo.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-2" {
		t.Fatalf("runs = %+v", runs)
	}
	r := runs[0]
	if !r.Start.SameDay(core.NewDate(2023, 1, 1)) || r.Horizon != 30 || r.MinTotal.Cents != -500 || r.Warnings != 2 {
		t.Errorf("run = %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}

	err = repo.SaveRun(ctx, RunSummary{RunID: "run-1", Start: core.NewDate(2023, 1, 1)})
	if !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("err = %v, want ErrDuplicateRun", err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
