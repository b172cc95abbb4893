// Package sheets defines where forecast input rows come from. The account
// sheet and the budget sheet can each live in a spreadsheet, a CSV export,
// a sqlite database or memory.
package sheets

import (
	"context"
	"fmt"

	"budgetcast/internal/core"
)

// Ports for inbound record adapters.
type (
	AccountReader interface {
		// ListAccounts returns every account row in sheet order.
		ListAccounts(ctx context.Context) ([]core.AccountRecord, error)
	}

	TransactionReader interface {
		// ListTransactions returns every recurring transaction row in sheet order.
		ListTransactions(ctx context.Context) ([]core.TransactionRecord, error)
	}

	RecordReader interface {
		AccountReader
		TransactionReader
	}
)

// Column headers shared by every tabular source.
const (
	ColAccountName  = "AccountName"
	ColBalance      = "Balance"
	ColType         = "Type"
	ColPayoffDay    = "PayoffDay"
	ColPayoffSource = "PayoffSource"
	ColCreditLimit  = "CreditLimit"

	ColDescription = "Description"
	ColOccurrence  = "Occurrence"
	ColAmount      = "Amount"
	ColSampleDate  = "Sample_Date"
	ColSource      = "Source"
	ColUntil       = "Until"
)

// AccountColumns and TransactionColumns list the expected headers in order.
var (
	AccountColumns     = []string{ColAccountName, ColBalance, ColType, ColPayoffDay, ColPayoffSource, ColCreditLimit}
	TransactionColumns = []string{ColDescription, ColOccurrence, ColAmount, ColType, ColSampleDate, ColSource, ColUntil}
)

// Load reads both sheets from r.
func Load(ctx context.Context, r RecordReader) (core.Records, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return core.Records{}, fmt.Errorf("read accounts: %w", err)
	}
	txs, err := r.ListTransactions(ctx)
	if err != nil {
		return core.Records{}, fmt.Errorf("read transactions: %w", err)
	}
	return core.Records{Accounts: accounts, Transactions: txs}, nil
}
