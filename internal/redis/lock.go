package redisdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "turnlock:"

var ErrLockTimeout = errors.New("timed out waiting for turn lock")

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Only the holder's token may push the expiry out.
var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Locker serializes turns for one identifier across server instances.
// A held lock is refreshed every ttl/3 until it is released, so the ttl
// only bounds how long a crashed holder blocks the identifier.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewLocker returns a lock whose keys expire after ttl if the holder dies.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl, retry: 50 * time.Millisecond}
}

// Lock blocks until the identifier's lock is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, identifier string) (func(), error) {
	key := lockPrefix + identifier
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if ok {
			return l.hold(key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// hold keeps key alive until the returned unlock is called.
func (l *Locker) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(l.ttl / 3)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				n, err := refreshScript.Run(context.Background(), l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
				if err != nil {
					log.Printf("[Lock] refresh %s failed: %v", key, err)
					continue
				}
				if n == 0 {
					log.Printf("[Lock] %s lost before release", key)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
				log.Printf("[Lock] release %s failed: %v", key, err)
			}
		})
	}
}
