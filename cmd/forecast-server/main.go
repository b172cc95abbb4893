package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetcast/internal/amqp"
	"budgetcast/internal/backend"
	"budgetcast/internal/cache"
	"budgetcast/internal/cli"
	apphttp "budgetcast/internal/http"
	"budgetcast/internal/log"
	"budgetcast/internal/services"
)

func main() {
	cli.LoadEnvFile()

	out, closeLog := cli.LogOutput(os.Getenv("LOG_FILE"))
	defer closeLog()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), out)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	src, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer src.Close()

	records := cache.NewRecordReader(src.Backend, cfg.RecordsCacheTTL)
	cacheManager := cache.NewManager(logger)
	for _, c := range records.Cleaners() {
		cacheManager.Register(c)
	}
	if cfg.RecordsCacheTTL > 0 {
		cacheManager.StartCleanup(cfg.RecordsCacheTTL)
	}

	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("Publishing forecast summaries", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	service := services.NewForecastService(records, publisher, src.Runs, services.ForecastServiceConfig{
		CheckCycles:    cfg.CheckCycles,
		MaxHorizonDays: cfg.MaxHorizonDays,
	}, logger)

	// Only the sqlite backend keeps run history.
	var runs apphttp.RunLister
	if lister, ok := src.Runs.(apphttp.RunLister); ok {
		runs = lister
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            service,
		Runs:               runs,
		Records:            records,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTSecret:          cfg.JWTSecret,
		Logger:             logger,
	})

	var scheduler *services.Scheduler
	if cfg.ForecastSchedule != "" {
		scheduler = services.NewScheduler(service, services.SchedulerConfig{
			Spec:        cfg.ForecastSchedule,
			HorizonDays: cfg.ScheduleHorizonDays,
			RunOnStart:  true,
		}, logger)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("Scheduler shutdown error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
	})

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start scheduler", log.FieldError, err)
			os.Exit(1)
		}
	}

	logger.Info("Starting forecast server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth", cfg.JWTSecret != "",
		"schedule", cfg.ForecastSchedule)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
