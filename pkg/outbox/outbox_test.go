package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newService(t *testing.T) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, logg), repo, conn
}

func settledEvent() DomainEvent {
	return DomainEvent{
		EventType:     enums.EventTransactionSettled,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   "11",
		Actor:         &ActorRef{UserID: 3, Role: "USER"},
		Data: TransactionSettledEvent{
			TransactionID: 11,
			UserID:        3,
			Total:         "160.00",
			Lines:         []SettledLineAdjustment{{ProductID: 7, Quantity: 2, Subtotal: "160.00"}},
		},
	}
}

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	svc, repo, conn := newService(t)
	ctx := context.Background()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, settledEvent())
	}))

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.Equal(t, enums.EventTransactionSettled, rows[0].EventType)
	assert.Equal(t, "11", rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, 1, env.Version)
	assert.NotEmpty(t, env.EventID)
	require.NotNil(t, env.Actor)
	assert.Equal(t, uint(3), env.Actor.UserID)

	reg, err := NewEventRegistry("storefront-events")
	require.NoError(t, err)
	resolved, err := reg.Resolve(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "storefront-events", resolved.Descriptor.Topic)
	payload, ok := resolved.Payload.(*TransactionSettledEvent)
	require.True(t, ok)
	assert.Equal(t, "160.00", payload.Total)

	fetched, err := repo.FetchUnpublishedForPublish(conn, 10, 5)
	require.NoError(t, err)
	assert.Len(t, fetched, 1)
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	svc, _, conn := newService(t)
	boom := errors.New("boom")

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, settledEvent()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitValidatesInput(t *testing.T) {
	svc, _, conn := newService(t)
	ctx := context.Background()

	assert.Error(t, svc.Emit(ctx, nil, settledEvent()))

	unknown := settledEvent()
	unknown.EventType = "order_created"
	assert.Error(t, svc.Emit(ctx, conn, unknown))

	missing := settledEvent()
	missing.AggregateID = ""
	assert.Error(t, svc.Emit(ctx, conn, missing))
}

func TestRepositoryLifecycle(t *testing.T) {
	_, repo, conn := newService(t)
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	published := old
	rows := []models.OutboxEvent{
		{ID: uuid.New(), EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateTransaction, AggregateID: "1", Payload: json.RawMessage(`{}`), CreatedAt: old, PublishedAt: &published},
		{ID: uuid.New(), EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateTransaction, AggregateID: "2", Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 5},
		{ID: uuid.New(), EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateTransaction, AggregateID: "3", Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 1},
		{ID: uuid.New(), EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateTransaction, AggregateID: "4", Payload: json.RawMessage(`{}`), CreatedAt: recent},
	}
	for _, row := range rows {
		require.NoError(t, repo.Insert(conn, row))
	}

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 5)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "3", pending[0].AggregateID)

	require.NoError(t, repo.MarkFailedTx(conn, rows[2].ID, errors.New("unavailable")))
	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", rows[2].ID).Error)
	assert.Equal(t, 2, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "unavailable", *failed.LastError)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[3].ID))

	deleted, err := repo.DeleteSettledBefore(context.Background(), conn, time.Now().UTC().Add(-24*time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestRegistryRejectsBadRows(t *testing.T) {
	reg, err := NewEventRegistry("topic")
	require.NoError(t, err)

	_, err = reg.Resolve(models.OutboxEvent{EventType: "nope", AggregateType: enums.AggregateTransaction, AggregateID: "1"})
	var nonRetry NonRetryableError
	require.ErrorAs(t, err, &nonRetry)

	_, err = reg.Resolve(models.OutboxEvent{EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateUser, AggregateID: "1"})
	require.ErrorAs(t, err, &nonRetry)

	_, err = reg.Resolve(models.OutboxEvent{EventType: enums.EventTransactionSettled, AggregateType: enums.AggregateTransaction, AggregateID: "1", Payload: json.RawMessage(`not-json`)})
	require.ErrorAs(t, err, &nonRetry)

	_, err = NewEventRegistry("")
	assert.Error(t, err)
}
