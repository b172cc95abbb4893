package cache

import (
	"context"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/sheets"
)

const (
	accountsKey     = "accounts"
	transactionsKey = "transactions"
)

// RecordReader caches the rows returned by another sheets.RecordReader for
// ttl. Callers receive copies, so cached rows cannot be mutated through them.
type RecordReader struct {
	next     sheets.RecordReader
	accounts *LRUCache[[]core.AccountRecord]
	txs      *LRUCache[[]core.TransactionRecord]
}

var _ sheets.RecordReader = (*RecordReader)(nil)

func NewRecordReader(next sheets.RecordReader, ttl time.Duration) *RecordReader {
	return &RecordReader{
		next:     next,
		accounts: NewLRUCache[[]core.AccountRecord](1, ttl),
		txs:      NewLRUCache[[]core.TransactionRecord](1, ttl),
	}
}

func (r *RecordReader) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	if rows, ok := r.accounts.Get(accountsKey); ok {
		return append([]core.AccountRecord(nil), rows...), nil
	}
	rows, err := r.next.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	r.accounts.Set(accountsKey, append([]core.AccountRecord(nil), rows...))
	return rows, nil
}

func (r *RecordReader) ListTransactions(ctx context.Context) ([]core.TransactionRecord, error) {
	if rows, ok := r.txs.Get(transactionsKey); ok {
		return append([]core.TransactionRecord(nil), rows...), nil
	}
	rows, err := r.next.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	r.txs.Set(transactionsKey, append([]core.TransactionRecord(nil), rows...))
	return rows, nil
}

// Invalidate drops cached rows so the next read goes to the source.
func (r *RecordReader) Invalidate() {
	r.accounts.Delete(accountsKey)
	r.txs.Delete(transactionsKey)
}

// Cleaners exposes the underlying caches for a Manager.
func (r *RecordReader) Cleaners() []Cleaner {
	return []Cleaner{r.accounts, r.txs}
}
