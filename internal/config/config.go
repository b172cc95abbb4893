package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"budgetcast/internal/log"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// CSV files
	AccountsFile     string
	TransactionsFile string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID     string
	GoogleAccountsSheet     string
	GoogleTransactionsSheet string

	// AMQP, optional. Forecast summaries are published when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Forecast
	CheckCycles    int
	MaxHorizonDays int

	// Periodic server-side forecasts, disabled when ForecastSchedule is empty.
	ForecastSchedule    string
	ScheduleHorizonDays int

	// Records loaded by the server are reused for this long.
	RecordsCacheTTL time.Duration

	// HTTP API protection
	RateLimitPerMinute int
	JWTSecret          string

	// Low balance alerts sent by the worker, disabled when AlertTo is empty.
	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
	AlertFrom    string
	AlertTo      []string

	LogLevel string
	// LogFile, when set, receives logs through a rotating writer instead of
	// stdout.
	LogFile string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "csv"),

		AccountsFile:     getEnv("ACCOUNTS_FILE", "./data/my_account_info.csv"),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "./data/budget.csv"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/forecast.db"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAccountsSheet:     getEnv("GOOGLE_ACCOUNTS_SHEET", "Accounts"),
		GoogleTransactionsSheet: getEnv("GOOGLE_TRANSACTIONS_SHEET", "Budget"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetcast"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "forecasts"),

		CheckCycles:    getEnvInt("CHECK_CYCLES", 1),
		MaxHorizonDays: getEnvInt("MAX_HORIZON_DAYS", 3650),

		ForecastSchedule:    getEnv("FORECAST_SCHEDULE", ""),
		ScheduleHorizonDays: getEnvInt("SCHEDULE_HORIZON_DAYS", 90),

		RecordsCacheTTL: getEnvDuration("RECORDS_CACHE_TTL", time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		JWTSecret:          getEnv("JWT_SECRET", ""),

		SMTPAddr:     getEnv("SMTP_ADDR", ""),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		AlertFrom:    getEnv("ALERT_FROM", "budgetcast@localhost"),
		AlertTo:      getEnvList("ALERT_TO"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"csv", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "csv":
		if c.AccountsFile == "" {
			errors = append(errors, "accounts file cannot be empty when using csv backend")
		}
		if c.TransactionsFile == "" {
			errors = append(errors, "transactions file cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleAccountsSheet == "" || c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google accounts and transactions sheet names are required when using sheets backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CheckCycles < 1 {
		errors = append(errors, fmt.Sprintf("invalid check cycles %d: must be at least 1", c.CheckCycles))
	}
	if c.MaxHorizonDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid max horizon %d: must be at least 1 day", c.MaxHorizonDays))
	}
	if c.ForecastSchedule != "" {
		if _, err := cron.ParseStandard(c.ForecastSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid forecast schedule '%s': %v", c.ForecastSchedule, err))
		}
		if c.ScheduleHorizonDays < 1 || c.ScheduleHorizonDays > c.MaxHorizonDays {
			errors = append(errors, fmt.Sprintf("invalid schedule horizon %d: must be between 1 and %d", c.ScheduleHorizonDays, c.MaxHorizonDays))
		}
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT secret must be at least 32 bytes")
	}
	if len(c.AlertTo) > 0 && c.SMTPAddr == "" {
		errors = append(errors, "SMTP address is required when alert recipients are set")
	}
	if c.RecordsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid records cache TTL %v: must not be negative", c.RecordsCacheTTL))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
