package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budgetcast/internal/config"
	"budgetcast/internal/core"
	"budgetcast/internal/sheets"
	"budgetcast/internal/sheets/csvfile"
	"budgetcast/internal/storage"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("memory").IsValid() {
		t.Error("memory is not a configurable backend")
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[0] != "csv" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "bogus"}); err == nil {
		t.Fatal("expected error for bogus backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:      "csv",
		AccountsFile:     "a.csv",
		TransactionsFile: "b.csv",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != CSVBackend || cfg.AccountsFile != "a.csv" || cfg.TransactionsFile != "b.csv" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"csv ok", Config{Type: CSVBackend, AccountsFile: "a", TransactionsFile: "b"}, false},
		{"csv missing file", Config{Type: CSVBackend, AccountsFile: "a"}, true},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"sheets missing id", Config{Type: SheetsBackend}, true},
		{"unknown type", Config{Type: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: CSVBackend, AccountsFile: "a.csv", TransactionsFile: "b.csv"})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if _, ok := res.Backend.(*csvfile.Store); !ok {
			t.Errorf("backend = %T, want *csvfile.Store", res.Backend)
		}
		if res.Runs != nil {
			t.Error("csv backend should not record runs")
		}
		if err := res.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "f.db")})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Close()

		if res.Runs == nil {
			t.Fatal("sqlite backend should record runs")
		}
		repo := res.Backend.(*storage.SQLiteRepository)
		if err := repo.ReplaceRecords(ctx, core.Records{
			Accounts: []core.AccountRecord{{AccountName: "Checking", Balance: "1", Type: "checking"}},
		}); err != nil {
			t.Fatal(err)
		}
		records, err := sheets.Load(ctx, res.Backend)
		if err != nil || len(records.Accounts) != 1 {
			t.Fatalf("records=%+v err=%v", records, err)
		}
	})

	t.Run("sheets without credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		if _, err := f.CreateBackend(ctx, Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}); err == nil {
			t.Fatal("expected credentials error")
		}
	})
}
