package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgetcast/internal/core"
	"budgetcast/internal/log"
)

var (
	ErrInvalidHorizon = errors.New("horizon must not be negative")
	// ErrHalted is returned when the context or the ShouldContinue hook stops
	// a run before the horizon; no result is produced.
	ErrHalted = errors.New("forecast halted before horizon")
)

// Options controls one run.
type Options struct {
	// Start is day 0 of the forecast.
	Start core.Date
	// Horizon is the number of simulated days.
	Horizon int
	// CheckCycles is how many occurrences either side of a transaction's
	// anchor are examined each day. Values below 1 mean 1.
	CheckCycles int
	// ShouldContinue, when set, is consulted once per simulated day.
	ShouldContinue func() bool
}

// Result is everything handed to presentation.
type Result struct {
	RunID    string
	Start    core.Date
	Horizon  int
	Accounts []Series
	Total    Series
	Events   []core.Event
}

// Run steps sim through opts.Horizon days starting at opts.Start. For each day
// it applies due transactions to their source accounts, prunes transactions
// whose until date is reached, sweeps credit accounts due for payoff, then
// records every balance and their sum.
//
// A transaction or payoff source that names an unknown account aborts the run
// with a *core.ReferenceError and no result.
func Run(ctx context.Context, sim *Simulation, opts Options) (*Result, error) {
	if opts.Horizon < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, opts.Horizon)
	}
	if opts.Start.IsZero() {
		opts.Start = core.DateOf(time.Now())
	}
	cycles := opts.CheckCycles
	if cycles < 1 {
		cycles = 1
	}

	runID := uuid.NewString()
	logger := sim.Logger.With(log.FieldRunID, runID)
	logger.InfoContext(ctx, "Starting forecast",
		log.FieldHorizon, opts.Horizon,
		log.FieldStartDate, opts.Start.String(),
		"accounts", sim.State.Accounts.Len(),
		"transactions", len(sim.State.Transactions))

	accounts := sim.State.Accounts
	sink := &daySink{events: sim.Events, logger: logger}

	for d := 0; d < opts.Horizon; d++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w at day %d: %w", ErrHalted, d, err)
		}
		if opts.ShouldContinue != nil && !opts.ShouldContinue() {
			return nil, fmt.Errorf("%w at day %d", ErrHalted, d)
		}

		day := opts.Start.AddDays(d)
		sink.day = day

		if err := applyDue(sim, day, cycles, sink, logger); err != nil {
			return nil, err
		}
		sim.State.Transactions = prune(sim.State.Transactions, day)
		if err := sweepPayoffs(accounts, day, sink); err != nil {
			return nil, err
		}

		total := core.Money{}
		for _, a := range accounts.All() {
			sim.Recorder.Record(a.Name, a.Type, Point{Date: day, Balance: a.Balance})
			total = total.Add(a.Balance)
		}
		sim.Recorder.RecordTotal(Point{Date: day, Balance: total})

		logger.DebugContext(ctx, "Simulated day",
			log.FieldDay, day.String(),
			"total_cents", total.Cents)
	}

	events := sim.Events.Events()
	logger.InfoContext(ctx, "Forecast complete",
		log.FieldHorizon, opts.Horizon,
		"events", len(events))

	return &Result{
		RunID:    runID,
		Start:    opts.Start,
		Horizon:  opts.Horizon,
		Accounts: sim.Recorder.Accounts(),
		Total:    sim.Recorder.Total(),
		Events:   events,
	}, nil
}

func applyDue(sim *Simulation, day core.Date, cycles int, sink core.EventSink, logger *log.Logger) error {
	for _, tx := range sim.State.Transactions {
		if tx.ExpiredOn(day) {
			continue
		}
		occ := tx.Match(day, cycles)
		tx.AdvanceAnchor(occ.Anchor)
		if !occ.Matched {
			continue
		}
		acct, err := sim.State.Accounts.Lookup("transaction source", tx.Source)
		if err != nil {
			return fmt.Errorf("transaction %q on %s: %w", tx.Description, day, err)
		}
		logger.Debug("Applying transaction",
			log.FieldTransaction, tx.Description,
			log.FieldAccount, acct.Name,
			log.FieldAmountCents, tx.Amount.Cents,
			log.FieldDay, day.String())
		acct.Apply(tx, sink)
	}
	return nil
}

// prune drops transactions that may not fire after day. It reuses the backing
// array of txs.
func prune(txs []*core.Transaction, day core.Date) []*core.Transaction {
	kept := txs[:0]
	for _, tx := range txs {
		if !tx.EndsOn(day) {
			kept = append(kept, tx)
		}
	}
	for i := len(kept); i < len(txs); i++ {
		txs[i] = nil
	}
	return kept
}

func sweepPayoffs(accounts *Registry, day core.Date, sink core.EventSink) error {
	for _, acct := range accounts.All() {
		if acct.Type != core.Credit || acct.PaybackDay != day.Day() {
			continue
		}
		payer, err := accounts.Lookup("credit account payoff source", acct.PaybackSource)
		if err != nil {
			return fmt.Errorf("payoff of %s on %s: %w", acct.Name, day, err)
		}
		payer.PayoffCreditAccount(acct, sink)
	}
	return nil
}
