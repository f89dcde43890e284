package repo

import (
	"context"
	"time"
)

type TokenRepo interface {
	// Store registers a freshly issued refresh JTI as active.
	Store(ctx context.Context, jti string, expiresAt time.Time) error

	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, jti string) (bool, error)

	RevokeAccess(ctx context.Context, jti string, expiresAt time.Time) error

	IsAccessRevoked(ctx context.Context, jti string) (bool, error)

	// Consume marks a reset JTI as used; reset tokens are single-use.
	Consume(ctx context.Context, jti string, expiresAt time.Time) error

	IsConsumed(ctx context.Context, jti string) (bool, error)
}
