package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	customErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
)

// TokenRepo keeps JTI state keyed with a TTL equal to the token's remaining
// lifetime, so entries disappear together with the tokens they describe.
type TokenRepo struct {
	client *redis.Client
}

func NewTokenRepo(client *redis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

func (r *TokenRepo) Store(ctx context.Context, jti string, exp time.Time) error {
	if err := r.client.Set(ctx, "r:"+jti, "0", safeTTL(exp)).Err(); err != nil {
		return customErrors.WrapUnavailable(err, "Store")
	}
	return nil
}

func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if err := r.client.Set(ctx, "r:"+jti, "1", safeTTL(exp)).Err(); err != nil {
		return customErrors.WrapUnavailable(err, "Revoke")
	}
	return nil
}

func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	val, err := r.client.Get(ctx, "r:"+jti).Result()
	switch {
	case err == redis.Nil:
		return false, nil
	case err != nil:
		// fail closed: treat as revoked and surface the error
		return true, customErrors.WrapUnavailable(err, "IsRevoked")
	default:
		return val == "1", nil
	}
}

func (r *TokenRepo) RevokeAccess(ctx context.Context, jti string, exp time.Time) error {
	if err := r.client.Set(ctx, "a:"+jti, "1", safeTTL(exp)).Err(); err != nil {
		return customErrors.WrapUnavailable(err, "RevokeAccess")
	}
	return nil
}

func (r *TokenRepo) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "a:"+jti).Result()
	if err != nil {
		return true, customErrors.WrapUnavailable(err, "IsAccessRevoked")
	}
	return n > 0, nil
}

// Consume records a used reset JTI until the token would have expired anyway.
func (r *TokenRepo) Consume(ctx context.Context, jti string, exp time.Time) error {
	if err := r.client.Set(ctx, "p:"+jti, "1", safeTTL(exp)).Err(); err != nil {
		return customErrors.WrapUnavailable(err, "Consume")
	}
	return nil
}

func (r *TokenRepo) IsConsumed(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "p:"+jti).Result()
	if err != nil {
		return true, customErrors.WrapUnavailable(err, "IsConsumed")
	}
	return n > 0, nil
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// minimal TTL so the key still disappears eventually
		return time.Hour
	}
	return ttl
}
