package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubSettlement struct {
	txn   *transactions.TransactionDTO
	err   error
	calls int
}

func (s *stubSettlement) Settle(_ context.Context, _ uint) (*transactions.TransactionDTO, error) {
	s.calls++
	return s.txn, s.err
}

type stubHistory struct {
	list []transactions.TransactionDTO
}

func (s *stubHistory) History(_ context.Context, _ uint) ([]transactions.TransactionDTO, error) {
	return s.list, nil
}

func asUser(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), &auth.Identity{UserID: 3, Role: enums.UserRoleUser}))
}

func TestSettleReturnsTransaction(t *testing.T) {
	svc := &stubSettlement{txn: &transactions.TransactionDTO{ID: 12, UserID: 3, Total: 160}}
	rec := httptest.NewRecorder()
	Settle(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/orders", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success     bool                        `json:"success"`
		Transaction transactions.TransactionDTO `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, uint(12), body.Transaction.ID)
	assert.Equal(t, 160.0, body.Transaction.Total)
}

func TestSettleErrorStatuses(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeValidation:        http.StatusBadRequest,
		pkgerrors.CodeInsufficientStock: http.StatusBadRequest,
		pkgerrors.CodeNotFound:          http.StatusNotFound,
		pkgerrors.CodeDependency:        http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		rec := httptest.NewRecorder()
		Settle(&stubSettlement{err: pkgerrors.New(code, "nope")}, nil).
			ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/orders", nil)))
		assert.Equal(t, status, rec.Code, code)

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(code), body.Code)
	}
}

func TestSettleWithoutIdentity(t *testing.T) {
	svc := &stubSettlement{}
	rec := httptest.NewRecorder()
	Settle(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestHistoryEmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	History(&stubHistory{list: []transactions.TransactionDTO{}}, nil).
		ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/transactions", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"transactions":[]}`, rec.Body.String())
}
