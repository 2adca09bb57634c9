package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"go-insure/internal/config"
	redisdb "go-insure/internal/redis"
)

func TestRedisRevocations_RevokeAndCheck(t *testing.T) {
	m := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = m.Addr()
	rdb := redisdb.NewClient(cfg)
	defer rdb.Close()
	r := NewRedisRevocations(rdb)
	ctx := context.Background()

	token, _ := GenerateJWT(testSecret, "ops", RoleOperator, time.Minute)
	claims, _ := ParseJWT(testSecret, token)

	revoked, err := r.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		t.Fatalf("fresh token: revoked=%v err=%v", revoked, err)
	}
	if err := RevokeToken(ctx, r, testSecret, token); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	revoked, err = r.IsRevoked(ctx, claims.ID)
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}
	ttl, err := rdb.TTL(ctx, "revoked:"+claims.ID).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected ttl bounded by token lifetime, got %v (%v)", ttl, err)
	}
}

func TestRedisRevocations_RequiresTokenID(t *testing.T) {
	r := NewRedisRevocations(nil)
	if err := r.Revoke(context.Background(), "", time.Minute); err == nil {
		t.Errorf("expected error for empty token id")
	}
	if err := r.Revoke(context.Background(), "abc", 0); err != nil {
		t.Errorf("expired token needs no entry, got %v", err)
	}
}
