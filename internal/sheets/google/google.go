package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"budgetcast/internal/core"
	"budgetcast/internal/log"
	ports "budgetcast/internal/sheets"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	accountsSheet     string
	transactionsSheet string
	logger            *log.Logger
}

// Ensure interface conformance
var _ ports.RecordReader = (*Client)(nil)

// Options names the spreadsheet and its two tabs.
type Options struct {
	SpreadsheetID     string
	AccountsSheet     string
	TransactionsSheet string
}

// NewFromEnv creates a read-only Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_ACCOUNTS_SHEET (default "Accounts"),
// GOOGLE_TRANSACTIONS_SHEET (default "Budget").
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:     os.Getenv("GOOGLE_SPREADSHEET_ID"),
		AccountsSheet:     os.Getenv("GOOGLE_ACCOUNTS_SHEET"),
		TransactionsSheet: os.Getenv("GOOGLE_TRANSACTIONS_SHEET"),
	}, logger)
}

// New creates a Sheets client authenticated with a saved user token or
// service account credentials.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentRecords)

	accounts := strings.TrimSpace(opts.AccountsSheet)
	if accounts == "" {
		accounts = "Accounts"
	}
	txs := strings.TrimSpace(opts.TransactionsSheet)
	if txs == "" {
		txs = "Budget"
	}

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		accountsSheet:     accounts,
		transactionsSheet: txs,
		logger:            logger,
	}, nil
}

// newSheetsService initializes a read-only Sheets Service. A user token saved
// by oauth-init (GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE) takes
// precedence over service account credentials.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	token, err := readOAuthToken()
	if err != nil {
		return nil, err
	}
	if token != nil {
		clientJSON, err := readOAuthClient()
		if err != nil {
			return nil, err
		}
		cfg, err := OAuthConfig(clientJSON)
		if err != nil {
			return nil, err
		}
		logger.DebugContext(ctx, "Creating Google Sheets service with user token",
			"scope", gsheet.SpreadsheetsReadonlyScope,
			"token_expiry", token.Expiry)
		service, err := gsheet.NewService(ctx, goption.WithTokenSource(cfg.TokenSource(ctx, token)))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	credentialsJSON, err := readCredentials()
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// OAuthConfig builds the read-only OAuth client configuration from a
// client secret JSON document.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func readOAuthClient() ([]byte, error) {
	b, ok, err := readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if !ok {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	return b, nil
}

// readOAuthToken returns nil when no user token is configured.
func readOAuthToken() (*oauth2.Token, error) {
	b, ok, err := readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var token oauth2.Token
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &token, nil
}

func readEnvOrFile(jsonKey, fileKey string) ([]byte, bool, error) {
	if v := strings.TrimSpace(os.Getenv(jsonKey)); v != "" {
		return []byte(v), true, nil
	}
	path := strings.TrimSpace(os.Getenv(fileKey))
	if path == "" {
		return nil, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func readCredentials() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ListAccounts reads the accounts tab.
func (c *Client) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	values, err := c.readSheet(ctx, c.accountsSheet)
	if err != nil {
		return nil, err
	}
	return ports.ParseAccountRows(toRows(values))
}

// ListTransactions reads the budget tab.
func (c *Client) ListTransactions(ctx context.Context) ([]core.TransactionRecord, error) {
	values, err := c.readSheet(ctx, c.transactionsSheet)
	if err != nil {
		return nil, err
	}
	return ports.ParseTransactionRows(toRows(values))
}

func (c *Client) readSheet(ctx context.Context, sheetName string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	// Unformatted values keep currency cells numeric; dates stay as typed.
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Read sheet", "sheet", sheetName, "rows", len(resp.Values))
	return resp.Values, nil
}

func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return rows
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		// %v would print large balances as 1e+06
		if f, ok := v.(float64); ok {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
