package worker

import (
	"context"
	"errors"
	"fmt"

	"budgetcast/internal/amqp"
	"budgetcast/internal/core"
	"budgetcast/internal/log"
	"budgetcast/internal/storage"
)

// RunStore persists forecast run digests. *storage.SQLiteRepository
// satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, s storage.RunSummary) error
}

// Alerter is told about every newly archived run. *notify.Alerter
// satisfies it.
type Alerter interface {
	Check(ctx context.Context, msg *amqp.ForecastMessage) (bool, error)
}

// RunArchiver stores forecast summaries received over AMQP.
type RunArchiver struct {
	runs    RunStore
	alerter Alerter
	logger  *log.Logger
}

// NewRunArchiver creates an archiver. alerter may be nil.
func NewRunArchiver(runs RunStore, alerter Alerter, logger *log.Logger) *RunArchiver {
	if logger == nil {
		logger = log.Discard()
	}
	return &RunArchiver{
		runs:    runs,
		alerter: alerter,
		logger:  logger.WithComponent(log.ComponentStorage),
	}
}

// HandleForecastMessage saves one forecast summary. Malformed messages and
// redelivered runs are logged and acknowledged; storage failures are returned
// so the message is requeued.
func (w *RunArchiver) HandleForecastMessage(ctx context.Context, msg *amqp.ForecastMessage) error {
	if msg.RunID == "" {
		w.logger.ErrorContext(ctx, "Dropping forecast message without run id")
		return nil
	}
	start, err := msg.Start()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping forecast message with invalid start date",
			log.FieldRunID, msg.RunID,
			log.FieldStartDate, msg.StartDate,
			log.FieldError, err)
		return nil
	}

	fields := log.NewFields().WithRun(msg.RunID, msg.HorizonDays, msg.StartDate)
	w.logger.InfoContext(ctx, "Processing forecast message", fields.ToSlice()...)

	err = w.runs.SaveRun(ctx, storage.RunSummary{
		RunID:      msg.RunID,
		Start:      start,
		Horizon:    msg.HorizonDays,
		FinalTotal: core.Cents(msg.FinalTotalCents),
		MinTotal:   core.Cents(msg.MinTotalCents),
		Warnings:   msg.Warnings,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateRun):
		w.logger.WarnContext(ctx, "Forecast run already archived", fields.ToSlice()...)
		return nil
	case err != nil:
		return fmt.Errorf("archive run %s: %w", msg.RunID, err)
	}

	w.logger.InfoContext(ctx, "Forecast run archived",
		append(fields.ToSlice(), "warnings", msg.Warnings)...)

	if w.alerter != nil {
		if _, err := w.alerter.Check(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "Failed to send alert",
				fields.WithError(err).ToSlice()...)
		}
	}
	return nil
}
