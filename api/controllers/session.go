package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

type storeTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	Stored    bool       `json:"stored"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SessionTokenStore keeps the bearer token the session will present to the
// remote API.
func SessionTokenStore(tokens TokenStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "token store unavailable"))
			return
		}

		var payload storeTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		exp, ok := auth.ExpiresAt(payload.Token)
		if ok && !time.Now().Before(exp) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token already expired"))
			return
		}

		if err := tokens.Save(r.Context(), payload.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := tokenResponse{Stored: true}
		if ok {
			resp.ExpiresAt = &exp
		}
		responses.WriteSuccess(w, resp)
	}
}

// SessionTokenClear forgets the session's bearer token.
func SessionTokenClear(tokens TokenStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "token store unavailable"))
			return
		}
		if err := tokens.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tokenResponse{Stored: false})
	}
}
