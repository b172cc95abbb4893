// Package forecast replays recurring transactions against accounts one
// simulated day at a time and records the resulting balances.
package forecast

import (
	"errors"
	"fmt"

	"budgetcast/internal/core"
	"budgetcast/internal/log"
)

// State is the mutable account and transaction set of one forecast.
type State struct {
	Accounts     *Registry
	Transactions []*core.Transaction
}

// NewState validates every record and builds the state. All validation
// problems are reported together.
func NewState(records core.Records) (*State, error) {
	s := &State{Accounts: NewRegistry()}
	var errs []error
	for _, rec := range records.Accounts {
		a, err := core.NewAccount(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.Accounts.Add(a); err != nil {
			errs = append(errs, err)
		}
	}
	for _, rec := range records.Transactions {
		tx, err := core.NewTransaction(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Transactions = append(s.Transactions, tx)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid records: %w", errors.Join(errs...))
	}
	return s, nil
}

// Clone deep-copies the state so another run can mutate it independently.
func (s *State) Clone() *State {
	c := &State{
		Accounts:     s.Accounts.Clone(),
		Transactions: make([]*core.Transaction, len(s.Transactions)),
	}
	for i, tx := range s.Transactions {
		c.Transactions[i] = tx.Clone()
	}
	return c
}

// Simulation is the explicit context of one run: the state it mutates, the
// recorder it fills and where events go. Nothing is shared between two
// simulations unless the caller shares it.
type Simulation struct {
	State    *State
	Recorder *Recorder
	Events   *core.EventLog
	Logger   *log.Logger
}

// NewSimulation wraps state with a fresh recorder and event log. A nil logger
// discards log output; events are still collected.
func NewSimulation(state *State, logger *log.Logger) *Simulation {
	if logger == nil {
		logger = log.Discard()
	}
	return &Simulation{
		State:    state,
		Recorder: NewRecorder(),
		Events:   &core.EventLog{},
		Logger:   logger.WithComponent(log.ComponentForecast),
	}
}

// daySink stamps events with the simulated day, keeps them and logs them.
type daySink struct {
	day    core.Date
	events *core.EventLog
	logger *log.Logger
}

func (s *daySink) Record(e core.Event) {
	e.Date = s.day
	s.events.Record(e)

	fields := log.NewFields().
		WithAccount(e.Account, e.Balance.Cents).
		WithComponent(log.ComponentAccount)
	fields[log.FieldEvent] = string(e.Kind)
	fields[log.FieldDay] = e.Date.String()
	if e.Kind == core.EventCreditUtilization {
		fields[log.FieldUtilization] = e.Utilization
	}
	if e.Warning() {
		s.logger.Logger.Warn(e.Message, fields.ToSlice()...)
	} else {
		s.logger.Logger.Debug(e.Message, fields.ToSlice()...)
	}
}
