package dialogue

import (
	"context"
	"sync"
)

// Locker serializes turns for one identifier.
type Locker interface {
	Lock(ctx context.Context, identifier string) (unlock func(), err error)
}

// LocalLocker is an in-process keyed lock for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: map[string]*slot{}}
}

func (l *LocalLocker) Lock(ctx context.Context, identifier string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[identifier]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[identifier] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			l.release(identifier, s)
		}, nil
	case <-ctx.Done():
		l.release(identifier, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(identifier string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, identifier)
	}
}
