package services

import (
	"context"
	"errors"
	"fmt"

	"budgetcast/internal/amqp"
	"budgetcast/internal/core"
	"budgetcast/internal/forecast"
	"budgetcast/internal/log"
	"budgetcast/internal/sheets"
	"budgetcast/internal/storage"
)

var ErrHorizonTooLarge = errors.New("horizon exceeds maximum")

// Publisher announces completed runs. *amqp.Client satisfies it.
type Publisher interface {
	PublishForecast(ctx context.Context, msg *amqp.ForecastMessage) error
}

// RunRecorder stores run digests directly when no Publisher is configured.
type RunRecorder interface {
	SaveRun(ctx context.Context, s storage.RunSummary) error
}

type ForecastServiceConfig struct {
	CheckCycles    int
	MaxHorizonDays int
}

// ForecastService loads records, runs forecasts and hands the summaries to
// the configured publisher or run recorder.
type ForecastService struct {
	records   sheets.RecordReader
	publisher Publisher
	runs      RunRecorder
	config    ForecastServiceConfig
	logger    *log.Logger
}

// NewForecastService creates a service. publisher and runs may be nil.
func NewForecastService(records sheets.RecordReader, publisher Publisher, runs RunRecorder, config ForecastServiceConfig, logger *log.Logger) *ForecastService {
	if logger == nil {
		logger = log.Discard()
	}
	if config.CheckCycles < 1 {
		config.CheckCycles = 1
	}
	return &ForecastService{
		records:   records,
		publisher: publisher,
		runs:      runs,
		config:    config,
		logger:    logger.WithComponent(log.ComponentForecast),
	}
}

// Request describes one or more forecasts over the same records. Each entry
// in Horizons produces one independent result.
type Request struct {
	Start          core.Date
	Horizons       []int
	ShouldContinue func() bool
}

// Forecast runs every requested horizon and returns results in request order.
func (s *ForecastService) Forecast(ctx context.Context, req Request) ([]*forecast.Result, error) {
	if len(req.Horizons) == 0 {
		return nil, fmt.Errorf("%w: no horizon requested", forecast.ErrInvalidHorizon)
	}
	for _, h := range req.Horizons {
		if h < 0 {
			return nil, fmt.Errorf("%w: %d", forecast.ErrInvalidHorizon, h)
		}
		if s.config.MaxHorizonDays > 0 && h > s.config.MaxHorizonDays {
			return nil, fmt.Errorf("%w: %d > %d days", ErrHorizonTooLarge, h, s.config.MaxHorizonDays)
		}
	}

	records, err := sheets.Load(ctx, s.records)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	state, err := forecast.NewState(records)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Records loaded",
		"accounts", state.Accounts.Len(),
		"transactions", len(state.Transactions))

	plans := make([]forecast.Options, len(req.Horizons))
	for i, h := range req.Horizons {
		plans[i] = forecast.Options{
			Start:          req.Start,
			Horizon:        h,
			CheckCycles:    s.config.CheckCycles,
			ShouldContinue: req.ShouldContinue,
		}
	}

	results, err := forecast.RunAll(ctx, state, s.logger, plans)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		s.archive(ctx, res.Summary())
	}
	return results, nil
}

// archive publishes the summary, or saves it locally without a publisher.
// Failures are logged; the forecast itself already succeeded.
func (s *ForecastService) archive(ctx context.Context, sum forecast.Summary) {
	fields := log.NewFields().
		WithRun(sum.RunID, sum.Horizon, sum.Start.String())

	switch {
	case s.publisher != nil:
		if err := s.publisher.PublishForecast(ctx, amqp.NewForecastMessage(sum)); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish forecast",
				fields.WithOperation(log.OpPublish).WithError(err).ToSlice()...)
			return
		}
	case s.runs != nil:
		if err := s.runs.SaveRun(ctx, RunSummaryOf(sum)); err != nil {
			s.logger.ErrorContext(ctx, "Failed to save forecast run",
				fields.WithError(err).ToSlice()...)
			return
		}
	default:
		return
	}

	s.logger.InfoContext(ctx, "Forecast archived",
		append(fields.ToSlice(),
			"final_total_cents", sum.FinalTotal.Cents,
			"min_total_cents", sum.MinTotal.Cents,
			"warnings", sum.Warnings)...)
}

// RunSummaryOf converts a forecast summary to its stored form.
func RunSummaryOf(sum forecast.Summary) storage.RunSummary {
	return storage.RunSummary{
		RunID:      sum.RunID,
		Start:      sum.Start,
		Horizon:    sum.Horizon,
		FinalTotal: sum.FinalTotal,
		MinTotal:   sum.MinTotal,
		Warnings:   sum.Warnings,
	}
}
