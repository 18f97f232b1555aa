package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/ZanzyTHEbar/apimemo/apimemo/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *LibSQLLedger {
	t.Helper()
	database, err := db.Connect(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	if err != nil {
		t.Skipf("libsql unavailable: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewLibSQLLedger(database)
}

func TestLibSQLLedger_RecordAndRecent(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i, key := range []string{"obd2/P0001", "obd2/P0002", "obd2/P0003"} {
		err := ledger.Record(ctx, ports.Dispatch{
			ID:         uuid.NewString(),
			Key:        key,
			URL:        "https://car-code.p.rapidapi.com/" + key,
			StatusCode: 200,
			Duration:   time.Duration(i+1) * time.Millisecond,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	recent, err := ledger.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "obd2/P0003", recent[0].Key)
	assert.Equal(t, "obd2/P0002", recent[1].Key)
	assert.Equal(t, 3*time.Millisecond, recent[0].Duration)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(2*time.Second)))
	assert.Equal(t, 200, recent[0].StatusCode)
}

func TestLibSQLLedger_RecordsErrors(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, ports.Dispatch{
		ID:    uuid.NewString(),
		Key:   "obd2/P0001",
		URL:   "https://example.invalid/obd2/P0001",
		Error: "transport: send: connection refused",
	}))

	recent, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Zero(t, recent[0].StatusCode)
	assert.Contains(t, recent[0].Error, "connection refused")
	assert.False(t, recent[0].CreatedAt.IsZero())
}

func TestLibSQLLedger_RecentNonPositiveLimit(t *testing.T) {
	ledger := &LibSQLLedger{}
	got, err := ledger.Recent(context.Background(), 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestLibSQLLedger_DuplicateIDFails(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	d := ports.Dispatch{ID: "fixed", Key: "k", URL: "u"}

	require.NoError(t, ledger.Record(ctx, d))
	assert.Error(t, ledger.Record(ctx, d))
}
