package db

import (
	"os"
	"path/filepath"
	"testing"

	"go-insure/internal/catalog"
	"go-insure/internal/config"
	"go-insure/internal/session"
)

// Dummy DSN for test (won't actually connect, just checks error path)
func TestInit_InvalidDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = "invalid-dsn-for-testing"
	err := Init(cfg)
	if err == nil {
		t.Errorf("expected error for invalid DSN, got nil")
	}
}

func TestInit_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"
	if err := Init(cfg); err == nil {
		t.Errorf("expected error for unknown driver")
	}
}

func TestInit_SQLiteMigratesAllTables(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "insure.db")
	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if DB == nil {
		t.Fatalf("DB not set")
	}
	for _, table := range []string{"users", "user_contexts", "chat_messages", "leads", "quotes", "policies"} {
		if !DB.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}
	if !DB.Migrator().HasTable(&session.Lead{}) || !DB.Migrator().HasTable(&catalog.Policy{}) {
		t.Errorf("expected model tables")
	}
}

// You can only run actual DB tests if you have a valid Postgres test instance
// This test is optional and skipped unless TEST_DB_DSN is set
func TestInit_ValidDSN_AndMigrates(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("set TEST_DB_DSN to run real DB test")
	}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = dsn
	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if DB == nil {
		t.Fatalf("DB not set")
	}
}
