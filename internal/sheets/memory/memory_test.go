package memory

import (
	"context"
	"testing"

	"budgetcast/internal/core"
	"budgetcast/internal/sheets"
)

func TestMemoryStoreListReturnsCopies(t *testing.T) {
	s := New(core.Records{
		Accounts: []core.AccountRecord{{AccountName: "Checking", Balance: "10", Type: "checking"}},
	})
	s.AddTransaction(core.TransactionRecord{Description: "Rent"})

	accounts, err := s.ListAccounts(context.Background())
	if err != nil || len(accounts) != 1 {
		t.Fatalf("accounts=%v err=%v", accounts, err)
	}
	accounts[0].AccountName = "changed"

	again, _ := s.ListAccounts(context.Background())
	if again[0].AccountName != "Checking" {
		t.Fatal("caller mutation leaked into store")
	}

	records, err := sheets.Load(context.Background(), s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records.Transactions) != 1 || records.Transactions[0].Description != "Rent" {
		t.Fatalf("records = %+v", records)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s := New(core.Records{})
	s.AddAccount(core.AccountRecord{AccountName: "A"})
	s.Replace(core.Records{Accounts: []core.AccountRecord{{AccountName: "B"}, {AccountName: "C"}}})

	accounts, _ := s.ListAccounts(context.Background())
	if len(accounts) != 2 || accounts[0].AccountName != "B" {
		t.Fatalf("accounts = %+v", accounts)
	}
}
