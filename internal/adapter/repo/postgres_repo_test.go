package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(context.Background(), pool))
	_, err = pool.Exec(context.Background(), "DELETE FROM sync_journal")
	require.NoError(t, err)
	return pool
}

func TestPostgresJournal(t *testing.T) {
	pool := setupTestDB(t)
	journal := NewPostgresJournal(pool)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	_, ok, err := journal.Get(ctx, "ORD123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, journal.Record(ctx, domain.SyncRecord{RunID: "r1", OrderCode: "ORD123", Outcome: domain.OutcomeSynced, PartnerOrderID: "P1", RecordedAt: at}))
	require.NoError(t, journal.Record(ctx, domain.SyncRecord{OrderCode: "ORD123", Outcome: domain.OutcomeReconciled, Event: "order:shipment:created", RecordedAt: at.Add(time.Hour)}))
	require.NoError(t, journal.Record(ctx, domain.SyncRecord{OrderCode: "ORD124", Outcome: domain.OutcomeFailed, Reason: "no mapping", RecordedAt: at}))

	rec, ok, err := journal.Get(ctx, "ORD123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeReconciled, rec.Outcome, "latest record wins")
	assert.True(t, rec.RecordedAt.Equal(at.Add(time.Hour)))

	var codes []string
	require.NoError(t, journal.LoadAll(ctx, 10, func(rec domain.SyncRecord) error {
		codes = append(codes, rec.OrderCode)
		return nil
	}))
	assert.Equal(t, []string{"ORD123", "ORD124"}, codes)
}
