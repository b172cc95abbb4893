package memory

import (
	"context"
	"sync"

	"budgetcast/internal/core"
	ports "budgetcast/internal/sheets"
)

var _ ports.RecordReader = (*Store)(nil)

// Store keeps records in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	accounts []core.AccountRecord
	txs      []core.TransactionRecord
}

func New(records core.Records) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Replace swaps the stored records for a copy of records.
func (s *Store) Replace(records core.Records) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]core.AccountRecord(nil), records.Accounts...)
	s.txs = append([]core.TransactionRecord(nil), records.Transactions...)
}

// AddAccount appends an account row.
func (s *Store) AddAccount(rec core.AccountRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, rec)
}

// AddTransaction appends a transaction row.
func (s *Store) AddTransaction(rec core.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, rec)
}

func (s *Store) ListAccounts(_ context.Context) ([]core.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AccountRecord(nil), s.accounts...), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TransactionRecord(nil), s.txs...), nil
}
