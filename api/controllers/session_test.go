package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestSessionTokenStoreAndClear(t *testing.T) {
	kv := kvstore.NewMemory(0)
	tokens := auth.NewStoredToken(kv)
	token := signedToken(t, time.Now().Add(time.Hour))

	resp := serve(t, http.MethodPut, "/api/v1/session/token", "/api/v1/session/token", `{"token":"`+token+`"}`, SessionTokenStore(tokens, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData[tokenResponse](t, resp)
	assert.True(t, data.Stored)
	require.NotNil(t, data.ExpiresAt)

	ctx := middleware.WithSessionID(context.Background(), testSession)
	got, err := tokens.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	resp = serve(t, http.MethodDelete, "/api/v1/session/token", "/api/v1/session/token", "", SessionTokenClear(tokens, nil))
	require.Equal(t, http.StatusOK, resp.Code)

	got, err = tokens.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionTokenRejectsExpired(t *testing.T) {
	tokens := auth.NewStoredToken(kvstore.NewMemory(0))
	token := signedToken(t, time.Now().Add(-time.Minute))

	resp := serve(t, http.MethodPut, "/api/v1/session/token", "/api/v1/session/token", `{"token":"`+token+`"}`, SessionTokenStore(tokens, nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSessionTokenRequiresBody(t *testing.T) {
	tokens := auth.NewStoredToken(kvstore.NewMemory(0))

	resp := serve(t, http.MethodPut, "/api/v1/session/token", "/api/v1/session/token", `{}`, SessionTokenStore(tokens, nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
