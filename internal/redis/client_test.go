package redisdb

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"go-insure/internal/config"
)

func TestNewClient_BasicConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Password = ""
	cfg.Redis.DB = 15

	client := NewClient(cfg)
	if client == nil {
		t.Fatalf("NewClient returned nil")
	}
	opts := client.Options()
	if opts.Addr != cfg.Redis.Addr {
		t.Errorf("expected Addr %s, got %s", cfg.Redis.Addr, opts.Addr)
	}
	if opts.DB != cfg.Redis.DB {
		t.Errorf("expected DB %d, got %d", cfg.Redis.DB, opts.DB)
	}
}

func TestNewLocker_DefaultTTL(t *testing.T) {
	l := NewLocker(nil, 0)
	if l.ttl != 30*time.Second {
		t.Errorf("expected default ttl 30s, got %s", l.ttl)
	}
}

func newTestLocker(t *testing.T, ttl time.Duration) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = m.Addr()
	client := NewClient(cfg)
	t.Cleanup(func() { client.Close() })
	return NewLocker(client, ttl), m
}

func TestLocker_SerializesHolders(t *testing.T) {
	l, m := newTestLocker(t, 5*time.Second)
	unlock, err := l.Lock(context.Background(), "5550100")
	if err != nil {
		t.Fatalf("first Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "5550100"); err != ErrLockTimeout {
		t.Errorf("expected ErrLockTimeout while held, got %v", err)
	}

	unlock()
	if m.Exists(lockPrefix + "5550100") {
		t.Errorf("expected key deleted on release")
	}
	unlock2, err := l.Lock(context.Background(), "5550100")
	if err != nil {
		t.Fatalf("Lock after release failed: %v", err)
	}
	unlock2()
}

func TestLocker_HeldLockOutlivesTTL(t *testing.T) {
	ttl := 300 * time.Millisecond
	l, m := newTestLocker(t, ttl)
	key := lockPrefix + "5550101"

	unlock, err := l.Lock(context.Background(), "5550101")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	// Most of the ttl passes while the turn is still running.
	m.FastForward(250 * time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for m.TTL(key) <= 200*time.Millisecond {
		if time.Now().After(deadline) {
			t.Fatalf("lock was never refreshed, ttl %s", m.TTL(key))
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Well past the original expiry the key is still held.
	m.FastForward(250 * time.Millisecond)
	if !m.Exists(key) {
		t.Fatalf("lock expired while held")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "5550101"); err != ErrLockTimeout {
		t.Errorf("expected a second turn to wait, got %v", err)
	}
}

func TestLocker_ReleaseKeepsForeignKey(t *testing.T) {
	l, m := newTestLocker(t, 5*time.Second)
	key := lockPrefix + "5550102"

	unlock, err := l.Lock(context.Background(), "5550102")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	// Another holder took over after an expiry.
	if err := m.Set(key, "other-token"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	unlock()
	unlock() // a second call is a no-op

	if got, _ := m.Get(key); got != "other-token" {
		t.Errorf("release deleted another holder's key, got %q", got)
	}
}
