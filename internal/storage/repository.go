package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/log"
	"budgetcast/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ sheets.RecordReader = (*SQLiteRepository)(nil)

// ErrDuplicateRun is returned by SaveRun when the run id is already stored.
var ErrDuplicateRun = errors.New("forecast run already saved")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListAccounts implements sheets.AccountReader
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.AccountRecord, len(rows))
	for i, a := range rows {
		out[i] = core.AccountRecord{
			AccountName:  a.Name,
			Balance:      a.Balance,
			Type:         a.Type,
			PayoffDay:    a.PayoffDay,
			PayoffSource: a.PayoffSource,
			CreditLimit:  a.CreditLimit,
		}
	}
	return out, nil
}

// ListTransactions implements sheets.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.TransactionRecord, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.TransactionRecord, len(rows))
	for i, t := range rows {
		out[i] = core.TransactionRecord{
			Description: t.Description,
			Occurrence:  t.Occurrence,
			Amount:      t.Amount,
			Type:        t.Type,
			SampleDate:  t.SampleDate,
			Source:      t.Source,
			Until:       t.UntilDate,
		}
	}
	return out, nil
}

// ReplaceRecords swaps every stored account and transaction for records in a
// single transaction.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, records core.Records) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteTransactions(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err := q.DeleteAccounts(ctx); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	for _, a := range records.Accounts {
		if _, err := q.CreateAccount(ctx, CreateAccountParams{
			Name:         a.AccountName,
			Balance:      a.Balance,
			Type:         a.Type,
			PayoffDay:    a.PayoffDay,
			PayoffSource: a.PayoffSource,
			CreditLimit:  a.CreditLimit,
		}); err != nil {
			return fmt.Errorf("create account %s: %w", a.AccountName, err)
		}
	}
	for _, t := range records.Transactions {
		if _, err := q.CreateTransaction(ctx, CreateTransactionParams{
			Description: t.Description,
			Occurrence:  t.Occurrence,
			Amount:      t.Amount,
			Type:        t.Type,
			SampleDate:  t.SampleDate,
			Source:      t.Source,
			UntilDate:   t.Until,
		}); err != nil {
			return fmt.Errorf("create transaction %s: %w", t.Description, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "Records replaced",
		"accounts", len(records.Accounts),
		"transactions", len(records.Transactions))
	return nil
}

// RunSummary is the stored digest of one forecast run.
type RunSummary struct {
	RunID      string
	Start      core.Date
	Horizon    int
	FinalTotal core.Money
	MinTotal   core.Money
	Warnings   int
	CreatedAt  time.Time
}

// SaveRun records a run digest.
func (r *SQLiteRepository) SaveRun(ctx context.Context, s RunSummary) error {
	err := r.queries.CreateForecastRun(ctx, CreateForecastRunParams{
		RunID:           s.RunID,
		StartDate:       s.Start.String(),
		HorizonDays:     int64(s.Horizon),
		FinalTotalCents: s.FinalTotal.Cents,
		MinTotalCents:   s.MinTotal.Cents,
		Warnings:        int64(s.Warnings),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("save run %s: %w", s.RunID, ErrDuplicateRun)
		}
		return fmt.Errorf("save run %s: %w", s.RunID, err)
	}
	r.logger.DebugContext(ctx, "Forecast run saved", log.FieldRunID, s.RunID)
	return nil
}

// RecentRuns returns up to limit run digests, newest first.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.queries.ListRecentForecastRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list forecast runs: %w", err)
	}
	out := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		start, err := time.Parse(core.DateLayout, row.StartDate)
		if err != nil {
			return nil, fmt.Errorf("run %s start date: %w", row.RunID, err)
		}
		out = append(out, RunSummary{
			RunID:      row.RunID,
			Start:      core.DateOf(start),
			Horizon:    int(row.HorizonDays),
			FinalTotal: core.Cents(row.FinalTotalCents),
			MinTotal:   core.Cents(row.MinTotalCents),
			Warnings:   int(row.Warnings),
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
