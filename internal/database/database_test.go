package database

import (
	"context"
	"path/filepath"
	"testing"

	"bamboowoods/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, config.DriverSQLite, db.Driver())
}

func TestNewDB_SchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.createTables())
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: config.DriverSQLite}
	pg := &DB{driver: config.DriverPostgres}

	query := `SELECT * FROM bookings WHERE date >= ? AND name LIKE ? LIMIT ?`
	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, `SELECT * FROM bookings WHERE date >= $1 AND name LIKE $2 LIMIT $3`, pg.rebind(query))
}

func TestOpen_UnreachablePostgres(t *testing.T) {
	logger := zerolog.Nop()
	_, err := Open(config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Postgres: config.PostgresConfig{Host: "127.0.0.1", Port: 1, DBName: "bw", User: "bw"},
	}, &logger)
	assert.Error(t, err)
}

func TestDB_ClosedErrors(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()
	_, err = db.GetBooking(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = db.ListMenuItems(ctx, false)
	assert.Error(t, err)

	_, err = db.GetPendingSyncTasks(ctx, 10)
	assert.Error(t, err)
}
