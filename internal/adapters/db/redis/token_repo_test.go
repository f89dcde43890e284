package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) *TokenRepo {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	return NewTokenRepo(client)
}

func TestTokenRepo_StoreAndIsRevoked(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(10 * time.Minute)
	if err := repo.Store(ctx, "jti1", exp); err != nil {
		t.Fatalf("Store: %v", err)
	}

	revoked, err := repo.IsRevoked(ctx, "jti1")
	if err != nil {
		t.Fatalf("IsRevoked err: %v", err)
	}
	if revoked {
		t.Fatal("token should NOT be revoked right after Store")
	}
}

func TestTokenRepo_RevokeAndIsRevoked(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Minute)
	if err := repo.Revoke(ctx, "jti2", exp); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err := repo.IsRevoked(ctx, "jti2")
	if err != nil {
		t.Fatalf("IsRevoked err: %v", err)
	}
	if !revoked {
		t.Fatal("token should be marked revoked")
	}
}

func TestTokenRepo_RevokeAccess(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(30 * time.Second)
	if err := repo.RevokeAccess(ctx, "access-jti", exp); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}

	revoked, err := repo.IsAccessRevoked(ctx, "access-jti")
	if err != nil {
		t.Fatalf("IsAccessRevoked err: %v", err)
	}
	if !revoked {
		t.Fatal("access token should be marked revoked")
	}
}

func TestTokenRepo_ConsumeReset(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	used, err := repo.IsConsumed(ctx, "reset-jti")
	if err != nil {
		t.Fatalf("IsConsumed err: %v", err)
	}
	if used {
		t.Fatal("fresh reset JTI must not be consumed")
	}

	exp := time.Now().Add(15 * time.Minute)
	if err := repo.Consume(ctx, "reset-jti", exp); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	used, err = repo.IsConsumed(ctx, "reset-jti")
	if err != nil {
		t.Fatalf("IsConsumed err: %v", err)
	}
	if !used {
		t.Fatal("reset JTI should be consumed")
	}
}

func TestTokenRepo_IsRevoked_KeyAbsent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "absent-jti")
	if err != nil {
		t.Fatalf("IsRevoked err: %v", err)
	}
	if revoked {
		t.Fatal("absent key must be considered NOT revoked")
	}
}

func TestTokenRepo_KeyspacesIsolated(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Minute)
	if err := repo.Revoke(ctx, "same-jti", exp); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, _ := repo.IsAccessRevoked(ctx, "same-jti")
	if revoked {
		t.Fatal("refresh revocation must not shadow access keyspace")
	}
	used, _ := repo.IsConsumed(ctx, "same-jti")
	if used {
		t.Fatal("refresh revocation must not shadow reset keyspace")
	}
}
