package auth

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "buyer@example.com",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken(" abc ").Token(context.Background())
	if err != nil || token != "abc" {
		t.Fatalf("unexpected token %q (%v)", token, err)
	}
}

func TestStoredTokenMissingIsEmpty(t *testing.T) {
	source := NewStoredToken(kvstore.NewMemory(0))
	token, err := source.Token(context.Background())
	if err != nil || token != "" {
		t.Fatalf("expected empty token, got %q (%v)", token, err)
	}
}

func TestStoredTokenExpiry(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory(0)
	source := NewStoredToken(kv)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return now }

	live := mintToken(t, now.Add(time.Hour))
	if err := source.Save(ctx, live); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, err := source.Token(ctx)
	if err != nil || token != live {
		t.Fatalf("expected live token, got %q (%v)", token, err)
	}

	if err := kv.Set(ctx, TokenKey, mintToken(t, now.Add(-time.Minute))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := source.Token(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestStoredTokenOpaqueValuePassesThrough(t *testing.T) {
	ctx := context.Background()
	source := NewStoredToken(kvstore.NewMemory(0))
	if err := source.Save(ctx, "opaque-token"); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, err := source.Token(ctx)
	if err != nil || token != "opaque-token" {
		t.Fatalf("unexpected token %q (%v)", token, err)
	}
}

func TestStoredTokenIsSessionScoped(t *testing.T) {
	kv := kvstore.NewMemory(0)
	source := NewStoredToken(kv)
	alice := WithSession(context.Background(), "alice")
	bob := WithSession(context.Background(), "bob")

	if err := source.Save(alice, "alice-token"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := kv.Get(context.Background(), "session:alice:authToken"); err != nil {
		t.Fatalf("expected session scoped key: %v", err)
	}
	if token, _ := source.Token(bob); token != "" {
		t.Fatalf("bob must not see alice's token, got %q", token)
	}
	if err := source.Clear(alice); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if token, _ := source.Token(alice); token != "" {
		t.Fatalf("expected token to be cleared")
	}
	if err := source.Save(alice, " "); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank token, got %v", err)
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := ExpiresAt(mintToken(t, exp))
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected %v, got %v (%v)", exp, got, ok)
	}
	if _, ok := ExpiresAt("not-a-jwt"); ok {
		t.Fatalf("opaque token should report no expiry")
	}
}
