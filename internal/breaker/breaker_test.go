package breaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("test", 2, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		if err := b.Call(func() error { return errBoom }); err != errBoom {
			t.Fatalf("call %d: expected errBoom, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	called := false
	if err := b.Call(func() error { called = true; return nil }); err != ErrOpen {
		t.Errorf("expected ErrOpen while cooling down, got %v", err)
	}
	if called {
		t.Errorf("fn must not run while open")
	}
}

func TestBreaker_HalfOpenTrialCloses(t *testing.T) {
	b := New("test", 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	_ = b.Call(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	clock = clock.Add(2 * time.Minute)
	if err := b.Call(func() error { return nil }); err != nil {
		t.Fatalf("trial call should run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful trial call, got %s", b.State())
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	b := New("test", 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	_ = b.Call(func() error { return errBoom })
	clock = clock.Add(2 * time.Minute)
	_ = b.Call(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Errorf("expected open after failed trial call, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := New("test", 2, time.Minute)
	_ = b.Call(func() error { return errBoom })
	_ = b.Call(func() error { return nil })
	_ = b.Call(func() error { return errBoom })
	if b.State() != StateClosed {
		t.Errorf("non-consecutive failures should not open, got %s", b.State())
	}
}
