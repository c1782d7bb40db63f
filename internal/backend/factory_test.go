package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"finzen/internal/config"
	"finzen/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "postgres", DatabaseURL: "postgres://localhost/finzen"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != cfg.DatabaseURL || got.DataDirectory != "data" {
		t.Fatalf("unexpected backend config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "database URL"},
		{"sheets without id", Config{Type: SheetsBackend}, "Spreadsheet ID"},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x"}, "credentials"},
		{"unknown", Config{Type: "csv"}, "invalid backend type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Fatalf("memory backend needs no settings, got %v", err)
	}
}

func TestCreateMemoryAndSQLiteBackends(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if tips, err := mem.Backend.ListTips(ctx, 5); err != nil || len(tips) == 0 {
		t.Fatalf("expected default tips, got %d (%v)", len(tips), err)
	}
	if err := mem.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	sqlite, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "finzen.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer sqlite.Cleanup()
	if sqlite.Type != SQLiteBackend {
		t.Fatalf("expected sqlite type, got %s", sqlite.Type)
	}
	if tips, err := sqlite.Backend.ListTips(ctx, 5); err != nil || len(tips) != 5 {
		t.Fatalf("expected 5 seeded tips, got %d (%v)", len(tips), err)
	}
}
