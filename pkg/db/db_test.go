package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConfiguresWAL(t *testing.T) {
	conn, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "state.db"))
	require.NoError(t, err)
	defer conn.Close()

	var mode string
	require.NoError(t, conn.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)
}

func TestDefaultPathHonorsBasePath(t *testing.T) {
	t.Setenv("SKILLDEX_BASE_PATH", "/tmp/skilldex-test")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/skilldex-test", "state.db"), path)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer conn.Close()

	migrations := []Migration{
		{
			Version:     20260102030405,
			Description: "add widgets table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE widgets (id TEXT PRIMARY KEY)")
				return err
			},
		},
	}

	require.NoError(t, Migrate(ctx, conn, migrations))

	// idempotent: re-running applies nothing
	require.NoError(t, Migrate(ctx, conn, migrations))

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, count)

	_, err = conn.Exec("INSERT INTO widgets (id) VALUES ('w1')")
	assert.NoError(t, err)
}

func TestMigrateOrdering(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer conn.Close()

	var order []int64
	migrations := []Migration{
		{Version: 2, Description: "second", Up: func(*sql.Tx) error { order = append(order, 2); return nil }},
		{Version: 1, Description: "first", Up: func(*sql.Tx) error { order = append(order, 1); return nil }},
	}

	require.NoError(t, Migrate(ctx, conn, migrations))
	assert.Equal(t, []int64{1, 2}, order)
}
