package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Symbols.Quote != "USDT" || cfg.Market.SearchLimit != 10 || cfg.Storage.Backend != BackendFile {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Storage.Key != "crypto_watchlists" {
		t.Errorf("unexpected key %q", cfg.Storage.Key)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
[app]
log_level = "debug"

[symbols]
quote = "usdc"

[storage]
backend = "SQLite"
mirror = ["redis"]

[storage.sqlite]
path = "/tmp/x.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.LogLevel != "debug" || cfg.Symbols.Quote != "USDC" {
		t.Errorf("unexpected app/symbols %+v", cfg)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLite.Path != "/tmp/x.db" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if !cfg.UsesBackend(BackendRedis) || cfg.UsesBackend(BackendPostgres) {
		t.Errorf("UsesBackend mismatch")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "[storage]\nbackend = \"mongo\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	path := writeConfig(t, "[storage]\nbackend = \"postgres\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, "[storage\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
