package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bamboowoods/internal/config"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	db, err := NewDB(filepath.Join(dir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateBooking(ctx, &models.Booking{
		Name: "Achieng", Email: "a@example.com", Date: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}))

	storage := filepath.Join(dir, "backups")
	s := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: storage, RetentionDays: 1}, &logger)

	t.Run("Snapshot", func(t *testing.T) {
		path, err := s.Snapshot(ctx)
		require.NoError(t, err)

		restored, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer restored.Close()

		b, err := restored.GetBooking(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Achieng", b.Name)
	})

	t.Run("Prune", func(t *testing.T) {
		old := filepath.Join(storage, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
		stale := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(old, stale, stale))

		foreign := filepath.Join(storage, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))
		require.NoError(t, os.Chtimes(foreign, stale, stale))

		assert.Equal(t, 1, s.Prune())
		assert.NoFileExists(t, old)
		assert.FileExists(t, foreign)
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	s := NewBackupService(db, config.BackupConfig{Enabled: false}, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestBackupService_Interval(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, config.BackupConfig{}, &logger).interval())
	assert.Equal(t, time.Hour, NewBackupService(nil, config.BackupConfig{Schedule: "1h"}, &logger).interval())
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, config.BackupConfig{Schedule: "daily"}, &logger).interval())
}
