package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyFmt = "revoked:%s"

// Revocations records operator tokens that must no longer be accepted.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocations keeps revoked token ids in redis until the token would
// have expired anyway.
type RedisRevocations struct {
	rdb *redis.Client
}

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, remaining time.Duration) error {
	if tokenID == "" {
		return errors.New("token has no id")
	}
	if remaining <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, fmt.Sprintf(revokedKeyFmt, tokenID), "1", remaining).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, fmt.Sprintf(revokedKeyFmt, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeToken parses tokenStr and revokes it for the rest of its lifetime.
func RevokeToken(ctx context.Context, r *RedisRevocations, secret, tokenStr string) error {
	claims, err := ParseJWT(secret, tokenStr)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil {
		return errors.New("token has no expiry")
	}
	return r.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
