// Package csvfile reads the account and budget sheets from CSV exports.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"budgetcast/internal/core"
	ports "budgetcast/internal/sheets"
)

var _ ports.RecordReader = (*Store)(nil)

// Store reads two CSV files on every call, so edits are picked up without a
// restart.
type Store struct {
	accountsPath     string
	transactionsPath string
}

func New(accountsPath, transactionsPath string) *Store {
	return &Store{accountsPath: accountsPath, transactionsPath: transactionsPath}
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	rows, err := readFile(ctx, s.accountsPath)
	if err != nil {
		return nil, err
	}
	return ports.ParseAccountRows(rows)
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.TransactionRecord, error) {
	rows, err := readFile(ctx, s.transactionsPath)
	if err != nil {
		return nil, err
	}
	return ports.ParseTransactionRows(rows)
}

func readFile(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV from r. Rows may have differing lengths and a UTF-8 byte
// order mark, as spreadsheet exports often do.
func Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
