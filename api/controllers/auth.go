package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CookieOptions controls the session cookie the auth handlers write.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

// AuthRegister creates an account. It does not log the caller in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.SanitizeString(body.Name, 120)

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), user.ID), "auth.registered")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, types.Payload{
			"message": "account created",
			"user":    user,
		})
	}
}

// AuthLogin verifies credentials and stores the signed session in an HTTP-only cookie.
func AuthLogin(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Issue(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		middleware.SetSessionCookie(w, session.Token, session.ExpiresAt, cookie.TTL, cookie.Secure)
		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), session.User.ID), "auth.login")
		}
		responses.WriteSuccess(w, types.Payload{"user": session.User})
	}
}

// AuthLogout expires the session cookie. Tokens are stateless, so nothing is revoked server-side.
func AuthLogout(cookie CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.ClearSessionCookie(w, cookie.Secure)
		responses.WriteSuccess(w, types.Payload{"message": "logged out"})
	}
}

// AuthCheck resolves the session cookie into the current identity.
func AuthCheck(svc auth.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token := middleware.SessionToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
			return
		}

		identity, err := svc.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				middleware.ClearSessionCookie(w, cookie.Secure)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Payload{"user": identity})
	}
}
