package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the durable key holding a bearer token outside any session.
const TokenKey = "authToken"

// TokenSource supplies the bearer credential for outgoing requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same configured token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

type sessionKey struct{}

// WithSession scopes stored credentials in ctx to sessionID.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session id set by WithSession.
func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// StoredToken reads the token a login flow left in the durable store.
type StoredToken struct {
	store kvstore.Store
	now   func() time.Time
}

func NewStoredToken(store kvstore.Store) *StoredToken {
	return &StoredToken{store: store, now: time.Now}
}

func tokenKey(ctx context.Context) string {
	if id, ok := SessionFromContext(ctx); ok {
		return "session:" + id + ":" + TokenKey
	}
	return TokenKey
}

// Token returns the stored token, "" when none is stored, or UNAUTHORIZED
// when the token is a JWT that has already expired.
func (s *StoredToken) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, tokenKey(ctx))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read auth token")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	if exp, ok := ExpiresAt(token); ok && !s.now().Before(exp) {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "auth token expired")
	}
	return token, nil
}

// Save stores token for the session in ctx.
func (s *StoredToken) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	if err := s.store.Set(ctx, tokenKey(ctx), token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store auth token")
	}
	return nil
}

// Clear forgets the token for the session in ctx.
func (s *StoredToken) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, tokenKey(ctx)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear auth token")
	}
	return nil
}

// ExpiresAt reads the exp claim without verifying the signature. ok is false
// when the token is not a JWT or carries no exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
