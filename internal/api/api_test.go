package api

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-insure/internal/catalog"
	"go-insure/internal/config"
	"go-insure/internal/dialogue"
	"go-insure/internal/session"
)

const testSecret = "test-secret"

type fakeTurns struct {
	mu    sync.Mutex
	msgs  []dialogue.Message
	reply *dialogue.Reply
	err   error
}

func (f *fakeTurns) HandleTurn(ctx context.Context, msg dialogue.Message) (*dialogue.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	if msg.Identifier == "" {
		return nil, dialogue.ErrMissingIdentifier
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &dialogue.Reply{Answer: "echo: " + msg.Text, InputType: dialogue.InputText}, nil
}

type fakeSessions struct {
	sessions map[string]*session.Session
	leads    []session.Lead
	limit    int
	err      error
}

func (f *fakeSessions) Find(ctx context.Context, phone string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[phone]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) ListLeads(ctx context.Context, limit int) ([]session.Lead, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.leads, nil
}

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = testSecret
	return cfg
}

func setupStore(t *testing.T) *session.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	models := append(session.Models(), &catalog.Policy{})
	if err := dbConn.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return session.NewStore(dbConn, string(dialogue.InitialPhase))
}
