package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bamboowoods/internal/config"

	"github.com/rs/zerolog"
)

// ErrBackupUnsupported is returned when the active driver has no online
// snapshot support. Postgres deployments rely on pg_dump outside the process.
var ErrBackupUnsupported = errors.New("backup not supported for driver")

const backupPrefix = "bamboowoods_"

// BackupService snapshots the SQLite store on a fixed interval and prunes
// snapshots older than the retention window.
type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("invalid backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// Start blocks until ctx is cancelled.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service disabled")
		return
	}
	if s.db.Driver() != config.DriverSQLite {
		s.logger.Info().Str("driver", s.db.Driver()).Msg("backup service skipped for driver")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("storage", s.config.StoragePath).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Snapshot(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.Prune()
		}
	}
}

// Snapshot writes a consistent copy of the database with VACUUM INTO and
// returns its path.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	if s.db.Driver() != config.DriverSQLite {
		return "", fmt.Errorf("%w %s", ErrBackupUnsupported, s.db.Driver())
	}
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format("20060102_150405") + ".db"
	target := filepath.Join(s.config.StoragePath, name)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%w: backup %s already exists", ErrDuplicate, name)
	}

	escaped := strings.ReplaceAll(target, "'", "''")
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO '"+escaped+"'"); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", target, err)
	}

	s.logger.Info().Str("path", target).Msg("database backup written")
	return target, nil
}

// Prune removes snapshots older than RetentionDays. Files that do not look
// like snapshots are left alone.
func (s *BackupService) Prune() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read backup directory")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.config.StoragePath, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to delete old backup")
			continue
		}
		removed++
		s.logger.Info().Str("file", entry.Name()).Msg("old backup deleted")
	}
	return removed
}
