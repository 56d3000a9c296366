package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuthService struct {
	user        *users.UserDTO
	session     *auth.Session
	identity    *auth.Identity
	err         error
	lastToken   string
	lastRequest any
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.lastRequest = req
	return s.user, s.err
}

func (s *stubAuthService) Issue(_ context.Context, req auth.LoginRequest) (*auth.Session, error) {
	s.lastRequest = req
	return s.session, s.err
}

func (s *stubAuthService) Resolve(_ context.Context, token string) (*auth.Identity, error) {
	s.lastToken = token
	return s.identity, s.err
}

var testCookie = CookieOptions{Secure: true, TTL: 7 * 24 * time.Hour}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.SessionCookieName)
	return nil
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{user: &users.UserDTO{ID: 4, Name: "Ada", Email: "ada@example.com", Role: "USER"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"  Ada ","email":"ada@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ada", svc.lastRequest.(auth.RegisterRequest).Name)
	assert.Empty(t, rec.Result().Cookies())

	var body struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		User    users.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, uint(4), body.User.ID)
}

func TestAuthRegisterShortPasswordRejectedBeforeService(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"123"}`))
	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.lastRequest)
}

func TestAuthRegisterDuplicate(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthLoginSetsCookie(t *testing.T) {
	expires := time.Now().Add(testCookie.TTL)
	svc := &stubAuthService{session: &auth.Session{
		Token:     "signed.jwt.value",
		ExpiresAt: expires,
		User:      &users.UserDTO{ID: 4, Name: "Ada", Email: "ada@example.com", Role: "USER"},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, testCookie, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.Equal(t, "signed.jwt.value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 604800, cookie.MaxAge)
	assert.NotContains(t, rec.Body.String(), "signed.jwt.value")
}

func TestAuthLoginBadCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, testCookie, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthLogoutExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogout(testCookie).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthCheck(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthCheck(&stubAuthService{}, testCookie, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/check", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid", func(t *testing.T) {
		svc := &stubAuthService{identity: &auth.Identity{UserID: 4, Name: "Ada", Email: "ada@example.com", Role: enums.UserRoleAdmin}}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		AuthCheck(svc, testCookie, nil).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tok", svc.lastToken)
		assert.JSONEq(t, `{"success":true,"user":{"id":4,"name":"Ada","email":"ada@example.com","role":"ADMIN"}}`, rec.Body.String())
	})

	t.Run("deleted user clears cookie", func(t *testing.T) {
		svc := &stubAuthService{err: pkgerrors.Wrap(pkgerrors.CodeUnauthorized, auth.ErrUserNotFound, "account no longer exists")}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		AuthCheck(svc, testCookie, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Less(t, sessionCookie(t, rec).MaxAge, 0)
	})

	t.Run("expired keeps cookie untouched", func(t *testing.T) {
		svc := &stubAuthService{err: pkgerrors.Wrap(pkgerrors.CodeUnauthorized, auth.ErrTokenExpired, "session expired")}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		AuthCheck(svc, testCookie, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})
}
