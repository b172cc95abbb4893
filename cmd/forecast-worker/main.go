package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetcast/internal/amqp"
	"budgetcast/internal/cli"
	"budgetcast/internal/log"
	"budgetcast/internal/notify"
	"budgetcast/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	out, closeLog := cli.LogOutput(os.Getenv("LOG_FILE"))
	defer closeLog()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), out)
	logger.Info("Starting forecast-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var alerter worker.Alerter
	if len(cfg.AlertTo) > 0 {
		mailer, err := notify.NewMailer(notify.MailerConfig{
			Addr:     cfg.SMTPAddr,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertFrom,
			To:       cfg.AlertTo,
		})
		if err != nil {
			logger.Error("Failed to initialize mailer", log.FieldError, err)
			os.Exit(1)
		}
		alerter = notify.NewAlerter(mailer, logger)
		logger.Info("Low balance alerts enabled", "recipients", len(cfg.AlertTo))
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	archiver := worker.NewRunArchiver(repo, alerter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeForecasts(ctx, archiver.HandleForecastMessage)
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			amqpClient.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
