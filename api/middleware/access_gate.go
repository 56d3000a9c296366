package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "auth_token"

const apiPrefix = "/api"

// GatePolicy lists the path prefixes that need a session, and the stricter
// subset that also needs the ADMIN role.
type GatePolicy struct {
	Protected []string
	Admin     []string
	LoginPath string
	HomePath  string
}

// DefaultGatePolicy guards the cart, account and admin surfaces for both pages and API.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		Protected: []string{
			"/cart",
			"/account",
			"/admin",
			"/api/cart",
			"/api/orders",
			"/api/transactions",
			"/api/admin",
		},
		Admin:     []string{"/admin", "/api/admin"},
		LoginPath: "/login",
		HomePath:  "/",
	}
}

type GateAction int

const (
	GateAllow GateAction = iota
	GateRedirectLogin
	GateRedirectHome
)

func (a GateAction) String() string {
	switch a {
	case GateRedirectLogin:
		return "redirect_login"
	case GateRedirectHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

// Decision is the outcome of evaluating a request against a GatePolicy.
type Decision struct {
	Action      GateAction
	Target      string
	ClearCookie bool
	Identity    *auth.Identity
}

// Decide evaluates a request path against the policy. It performs no I/O: the
// caller resolves the token first and passes the outcome in.
func Decide(policy GatePolicy, path string, hasToken bool, resolveErr error, identity *auth.Identity) Decision {
	if !matchesAny(policy.Protected, path) {
		return Decision{Action: GateAllow}
	}
	login := loginTarget(policy.LoginPath, path)
	if !hasToken {
		return Decision{Action: GateRedirectLogin, Target: login}
	}
	if resolveErr != nil || identity == nil {
		return Decision{
			Action:      GateRedirectLogin,
			Target:      login,
			ClearCookie: errors.Is(resolveErr, auth.ErrUserNotFound),
		}
	}
	if matchesAny(policy.Admin, path) && !identity.IsAdmin() {
		return Decision{Action: GateRedirectHome, Target: homeTarget(policy.HomePath)}
	}
	return Decision{Action: GateAllow, Identity: identity}
}

// TokenResolver is the subset of the auth service the gate needs.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// AccessGate enforces the policy before any protected handler runs. Page
// navigations are redirected; API calls get 401/403 JSON envelopes.
func AccessGate(policy GatePolicy, resolver TokenResolver, secureCookie bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !matchesAny(policy.Protected, path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token := sessionToken(r)
			var (
				identity   *auth.Identity
				resolveErr error
			)
			if token != "" {
				identity, resolveErr = resolver.Resolve(ctx, token)
			}

			decision := Decide(policy, path, token != "", resolveErr, identity)
			if decision.ClearCookie {
				ClearSessionCookie(w, secureCookie)
			}

			if decision.Action == GateAllow {
				ctx = WithIdentity(ctx, decision.Identity)
				if logg != nil && decision.Identity != nil {
					ctx = logg.WithUserID(ctx, decision.Identity.UserID)
					ctx = logg.WithActorRole(ctx, string(decision.Identity.Role))
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if logg != nil {
				logCtx := logg.WithFields(ctx, map[string]any{
					"gate_action": decision.Action.String(),
					"has_token":   token != "",
				})
				if resolveErr != nil {
					logCtx = logg.WithField(logCtx, "resolve_error", resolveErr.Error())
				}
				logg.Warn(logCtx, "gate.denied")
			}

			if isAPIPath(path) {
				responses.WriteError(ctx, logg, w, gateError(decision, resolveErr))
				return
			}
			http.Redirect(w, r, decision.Target, http.StatusTemporaryRedirect)
		})
	}
}

func gateError(decision Decision, resolveErr error) error {
	if decision.Action == GateRedirectHome {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if typed := pkgerrors.As(resolveErr); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
		return typed
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

// SetSessionCookie stores a freshly issued token on the response.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// SessionToken returns the session cookie value, or "" when absent.
func SessionToken(r *http.Request) string {
	return sessionToken(r)
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func matchesAny(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if matchesPrefix(prefix, path) {
			return true
		}
	}
	return false
}

func matchesPrefix(prefix, path string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAPIPath(path string) bool {
	return matchesPrefix(apiPrefix, path)
}

func loginTarget(loginPath, requested string) string {
	if loginPath == "" {
		loginPath = "/login"
	}
	return loginPath + "?redirect=" + url.QueryEscape(requested)
}

func homeTarget(home string) string {
	if home == "" {
		return "/"
	}
	return home
}
