package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"budgetcast/internal/core"
	"budgetcast/internal/log"
)

// SchedulerConfig holds configuration for periodic forecasts
type SchedulerConfig struct {
	// Spec is a standard cron expression or descriptor such as "@every 1h"
	// (default: "@hourly")
	Spec string

	// HorizonDays simulated by each run (default: 90)
	HorizonDays int

	// RunOnStart runs one forecast as soon as the scheduler starts
	RunOnStart bool
}

// DefaultSchedulerConfig returns the defaults used by the server
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Spec:        "@hourly",
		HorizonDays: 90,
	}
}

// Scheduler runs a forecast from today on a cron schedule so that run
// digests accumulate without a client asking for them.
type Scheduler struct {
	service *ForecastService
	config  SchedulerConfig
	logger  *log.Logger

	// now is replaced in tests
	now func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	stopCh  chan struct{}

	// startup tracks the RunOnStart run, which cron does not own.
	startup sync.WaitGroup
}

func NewScheduler(service *ForecastService, config SchedulerConfig, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}
	defaults := DefaultSchedulerConfig()
	if config.Spec == "" {
		config.Spec = defaults.Spec
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = defaults.HorizonDays
	}
	return &Scheduler{
		service: service,
		config:  config,
		logger:  logger.WithComponent(log.ComponentForecast),
		now:     time.Now,
	}
}

// Start registers the job and starts the cron runner. Returns an error if
// already running or if the schedule does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.config.Spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Spec, err)
	}
	s.cron = c
	s.stopCh = make(chan struct{})
	s.running = true
	c.Start()

	s.logger.InfoContext(ctx, "Forecast scheduler started",
		"schedule", s.config.Spec,
		log.FieldHorizon, s.config.HorizonDays)

	if s.config.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.RunOnce(ctx)
		}()
	}
	return nil
}

// Stop halts scheduling, interrupts runs in progress between simulated days
// and waits for them to return, including the startup run.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c, stopCh := s.cron, s.stopCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	cronDone := c.Stop().Done()
	done := make(chan struct{})
	go func() {
		<-cronDone
		s.startup.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "Forecast scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Forecast scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce performs a single scheduled forecast.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	stopCh := s.stopCh
	s.mu.Unlock()
	shouldContinue := func() bool {
		if stopCh == nil {
			return true
		}
		select {
		case <-stopCh:
			return false
		default:
			return true
		}
	}

	_, err := s.service.Forecast(ctx, Request{
		Start:          core.DateOf(s.now()),
		Horizons:       []int{s.config.HorizonDays},
		ShouldContinue: shouldContinue,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled forecast failed", log.FieldError, err)
	}
}
