package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	ID           int64
	Name         string
	Balance      string
	Type         string
	PayoffDay    string
	PayoffSource string
	CreditLimit  string
}

type Transaction struct {
	ID          int64
	Description string
	Occurrence  string
	Amount      string
	Type        string
	SampleDate  string
	Source      string
	UntilDate   string
}

type ForecastRun struct {
	RunID           string
	StartDate       string
	HorizonDays     int64
	FinalTotalCents int64
	MinTotalCents   int64
	Warnings        int64
	CreatedAt       time.Time
}

const listAccounts = `SELECT id, name, balance, type, payoff_day, payoff_source, credit_limit
FROM accounts ORDER BY id`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Name, &i.Balance, &i.Type, &i.PayoffDay, &i.PayoffSource, &i.CreditLimit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listTransactions = `SELECT id, description, occurrence, amount, type, sample_date, source, until_date
FROM transactions ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.Description, &i.Occurrence, &i.Amount, &i.Type, &i.SampleDate, &i.Source, &i.UntilDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateAccountParams struct {
	Name         string
	Balance      string
	Type         string
	PayoffDay    string
	PayoffSource string
	CreditLimit  string
}

const createAccount = `INSERT INTO accounts (name, balance, type, payoff_day, payoff_source, credit_limit)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createAccount,
		arg.Name, arg.Balance, arg.Type, arg.PayoffDay, arg.PayoffSource, arg.CreditLimit)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type CreateTransactionParams struct {
	Description string
	Occurrence  string
	Amount      string
	Type        string
	SampleDate  string
	Source      string
	UntilDate   string
}

const createTransaction = `INSERT INTO transactions (description, occurrence, amount, type, sample_date, source, until_date)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Description, arg.Occurrence, arg.Amount, arg.Type, arg.SampleDate, arg.Source, arg.UntilDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const deleteAccounts = `DELETE FROM accounts`

func (q *Queries) DeleteAccounts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAccounts)
	return err
}

const deleteTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteTransactions)
	return err
}

type CreateForecastRunParams struct {
	RunID           string
	StartDate       string
	HorizonDays     int64
	FinalTotalCents int64
	MinTotalCents   int64
	Warnings        int64
}

const createForecastRun = `INSERT INTO forecast_runs (run_id, start_date, horizon_days, final_total_cents, min_total_cents, warnings)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateForecastRun(ctx context.Context, arg CreateForecastRunParams) error {
	_, err := q.db.ExecContext(ctx, createForecastRun,
		arg.RunID, arg.StartDate, arg.HorizonDays, arg.FinalTotalCents, arg.MinTotalCents, arg.Warnings)
	return err
}

const listRecentForecastRuns = `SELECT run_id, start_date, horizon_days, final_total_cents, min_total_cents, warnings,
       strftime('%Y-%m-%dT%H:%M:%SZ', created_at)
FROM forecast_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`

func (q *Queries) ListRecentForecastRuns(ctx context.Context, limit int64) ([]ForecastRun, error) {
	rows, err := q.db.QueryContext(ctx, listRecentForecastRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ForecastRun
	for rows.Next() {
		var i ForecastRun
		var createdAt string
		if err := rows.Scan(&i.RunID, &i.StartDate, &i.HorizonDays, &i.FinalTotalCents, &i.MinTotalCents, &i.Warnings, &createdAt); err != nil {
			return nil, err
		}
		if i.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
