package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	database, err := Connect(context.Background(), path, zerolog.Nop())
	if err != nil {
		t.Skipf("libsql unavailable: %v", err)
	}
	defer database.Close()

	assert.FileExists(t, path)

	var name string
	err = database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'dispatches'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "dispatches", name)

	// Running migrations again is a no-op.
	assert.NoError(t, Migrate(database))
}

func TestConnect_ReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := Connect(context.Background(), path, zerolog.Nop())
	if err != nil {
		t.Skipf("libsql unavailable: %v", err)
	}
	_, err = first.Exec(`INSERT INTO dispatches (id, cache_key, url, status_code, error, duration_ns, created_at) VALUES ('a', 'k', 'u', 200, '', 1, 1)`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Connect(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM dispatches`).Scan(&count))
	assert.Equal(t, 1, count)
}
