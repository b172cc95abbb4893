// Command forecast runs a balance forecast from the configured records and
// prints it to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"budgetcast/internal/adapters"
	"budgetcast/internal/backend"
	"budgetcast/internal/cli"
	"budgetcast/internal/core"
	"budgetcast/internal/log"
	"budgetcast/internal/middleware/auth"
	"budgetcast/internal/report"
	"budgetcast/internal/services"
)

// horizons collects -forecast values. Each may be a comma separated list.
type horizons []int

func (h *horizons) String() string {
	parts := make([]string, len(*h))
	for i, d := range *h {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (h *horizons) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid day count %q", part)
		}
		*h = append(*h, d)
	}
	return nil
}

func main() {
	var (
		days     horizons
		start    = flag.String("start", "", "first simulated day as YYYY-MM-DD (default: today)")
		format   = flag.String("format", "table", "output format: table, json or csv")
		doImport = flag.Bool("import", false, "copy records from the configured backend into SQLITE_DB_PATH and exit")
		subject  = flag.String("token", "", "print an API bearer token for this subject and exit (requires JWT_SECRET)")
		tokenTTL = flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of a token printed by -token")
	)
	flag.Var(&days, "forecast", "days to simulate (required); repeat or comma separate for several forecasts")
	flag.Var(&days, "f", "shorthand for -forecast")
	flag.Parse()
	if err := checkArgs(days, *doImport, *subject); err != nil {
		fmt.Fprintln(os.Stderr, "forecast:", err)
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	// Logs go to stderr so stdout carries only the report.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)

	if *subject != "" {
		if err := printToken(cfg.JWTSecret, *subject, *tokenTTL); err != nil {
			fatal(logger, "Failed to issue token", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fatal(logger, "Invalid backend configuration", err)
	}
	src, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		fatal(logger, "Failed to initialize backend", err)
	}
	defer src.Close()

	if *doImport {
		if err := importRecords(ctx, logger, src.Backend, cfg.SQLiteDBPath, bcfg.Type); err != nil {
			fatal(logger, "Import failed", err)
		}
		return
	}

	outFormat, err := report.ParseFormat(*format)
	if err != nil {
		fatal(logger, "Invalid output format", err)
	}
	startDate := core.DateOf(time.Now())
	if *start != "" {
		if startDate, err = core.ParseDate(*start); err != nil {
			fatal(logger, "Invalid start date", err)
		}
	}

	service := services.NewForecastService(src.Backend, nil, src.Runs, services.ForecastServiceConfig{
		CheckCycles:    cfg.CheckCycles,
		MaxHorizonDays: cfg.MaxHorizonDays,
	}, logger)

	results, err := service.Forecast(ctx, services.Request{Start: startDate, Horizons: days})
	if err != nil {
		fatal(logger, "Forecast failed", err)
	}
	if err := report.Write(os.Stdout, outFormat, results); err != nil {
		fatal(logger, "Failed to write report", err)
	}
}

// checkArgs rejects a forecast request without a horizon before any backend
// is opened. -import and -token do not forecast.
func checkArgs(days horizons, doImport bool, subject string) error {
	if doImport || subject != "" {
		return nil
	}
	if len(days) == 0 {
		return errors.New("-forecast is required")
	}
	return nil
}

func importRecords(ctx context.Context, logger *log.Logger, src backend.Backend, dbPath string, from backend.BackendType) error {
	if from == backend.SQLiteBackend {
		return errors.New("records already live in sqlite; set DATA_BACKEND to csv or sheets")
	}
	repo := cli.InitSQLite(logger, dbPath)
	defer repo.Close()

	records, err := adapters.NewImporter(src, repo, logger).Import(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d accounts and %d transactions into %s\n",
		len(records.Accounts), len(records.Transactions), dbPath)
	return nil
}

func printToken(secret, subject string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := auth.New(secret).Issue(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
