package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteAppliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "users", name)

	// Reopening must not re-apply migrations.
	require.NoError(t, db.Close())
	db, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), "  ")
	require.Error(t, err)
}

func TestNewPostgresPoolRequiresURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "")
	require.Error(t, err)
}

func TestNewPostgresPoolStaysOpenAfterMigrations(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPostgresPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pool.Ping(ctx))
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n))

	// Migrating an already migrated pool is a no-op.
	require.NoError(t, migratePool(ctx, pool))
	require.NoError(t, pool.Ping(ctx))
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())

	_, err = NewRedisClient(ctx, "://bad")
	require.Error(t, err)
}
