package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key], _ = value.(string)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func orderRequest(userID uint, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	ctx := WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: enums.UserRoleUser})
	return req.WithContext(ctx)
}

type countingHandler struct {
	calls  int
	status int
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.calls++
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"success":true,"call":%d}`, c.calls)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, time.Hour, nil)(next)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest(7, "abc", ""))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, orderRequest(7, "abc", ""))

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	next := &countingHandler{}
	handler := Idempotency(newFakeStore(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "abc", ""))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(8, "abc", ""))

	assert.Equal(t, 2, next.calls)
}

func TestIdempotencyMissingHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "", ""))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "", ""))

	assert.Equal(t, 2, next.calls)
	assert.Zero(t, store.size())
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, time.Hour, nil)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyHeader, "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, next.calls)
	assert.Zero(t, store.size())
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	next := &countingHandler{}
	handler := Idempotency(newFakeStore(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "abc", `{"a":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(7, "abc", `{"a":2}`))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), body.Code)
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyDoesNotRememberServerErrors(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{status: http.StatusServiceUnavailable}
	handler := Idempotency(store, time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "abc", ""))
	assert.Zero(t, store.size())

	next.status = http.StatusOK
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(7, "abc", ""))
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdempotencyRemembersBusinessRejections(t *testing.T) {
	next := &countingHandler{status: http.StatusBadRequest}
	handler := Idempotency(newFakeStore(), time.Hour, nil)(next)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(7, "abc", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(7, "abc", ""))

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotencyInFlightKeyConflicts(t *testing.T) {
	store := newFakeStore()
	req := orderRequest(7, "abc", "")
	key := store.IdempotencyKey(idempotencyScope(req), "abc")
	pending, _ := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hashBody(nil)})
	require.NoError(t, store.Set(context.Background(), key, string(pending), time.Minute))

	next := &countingHandler{}
	rec := httptest.NewRecorder()
	Idempotency(store, time.Hour, nil)(next).ServeHTTP(rec, req)

	assert.Zero(t, next.calls)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotencyCorruptRecordIsDropped(t *testing.T) {
	store := newFakeStore()
	req := orderRequest(7, "abc", "")
	key := store.IdempotencyKey(idempotencyScope(req), "abc")
	require.NoError(t, store.Set(context.Background(), key, "not-json", time.Minute))

	rec := httptest.NewRecorder()
	Idempotency(store, time.Hour, nil)(&countingHandler{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, store.size())
}
