package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bamboowoods/internal/models"
)

const syncTaskColumns = `id, task_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.NextRetryAt != nil {
		utc := task.NextRetryAt.UTC()
		task.NextRetryAt = &utc
	}
	query := `INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	id, err := db.insert(ctx, query,
		task.TaskType,
		task.BookingID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	query := `SELECT ` + syncTaskColumns + ` FROM sync_queue
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC, id ASC LIMIT ?`
	rows, err := db.query(ctx, query, models.TaskStatusPending, models.TaskStatusRetry, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	defer rows.Close()
	return collectSyncTasks(rows)
}

// ClaimSyncTask moves a due pending or retry task to processing and returns
// its current row. It returns nil when another consumer already holds the
// task or its backoff has not elapsed.
func (db *DB) ClaimSyncTask(ctx context.Context, id int64) (*models.SyncTask, error) {
	query := `UPDATE sync_queue SET status = ?
              WHERE id = ? AND status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)`
	result, err := db.exec(ctx, query,
		models.TaskStatusProcessing, id, models.TaskStatusPending, models.TaskStatusRetry, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to claim sync task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to claim sync task: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	rows, err := db.query(ctx, `SELECT `+syncTaskColumns+` FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load claimed sync task: %w", err)
	}
	defer rows.Close()
	tasks, err := collectSyncTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return &tasks[0], nil
}

// ReleaseSyncTasks returns tasks left in processing by a stopped worker to
// the pending state.
func (db *DB) ReleaseSyncTasks(ctx context.Context) (int64, error) {
	result, err := db.exec(ctx, `UPDATE sync_queue SET status = ? WHERE status = ?`,
		models.TaskStatusPending, models.TaskStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to release sync tasks: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error) {
	query := `SELECT ` + syncTaskColumns + ` FROM sync_queue WHERE status = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.query(ctx, query, models.TaskStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed sync tasks: %w", err)
	}
	defer rows.Close()
	return collectSyncTasks(rows)
}

func (db *DB) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var (
		query string
		args  []any
	)
	now := time.Now().UTC()

	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}
	if nextRetryAt != nil {
		utc := nextRetryAt.UTC()
		nextRetryAt = &utc
	}

	switch status {
	case models.TaskStatusRetry:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []any{status, lastError, nextRetryAt, id}
	case models.TaskStatusCompleted, models.TaskStatusFailed:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []any{status, lastError, nextRetryAt, now, id}
	default:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []any{status, lastError, nextRetryAt, id}
	}

	result, err := db.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update sync task status: %w", err)
	}
	return affectedOrNotFound(result)
}

func collectSyncTasks(rows *sql.Rows) ([]models.SyncTask, error) {
	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		var lastError sql.NullString
		var processedAt, nextRetryAt sql.NullTime
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&lastError, &t.CreatedAt, &processedAt, &nextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		if lastError.Valid {
			t.LastError = &lastError.String
		}
		if processedAt.Valid {
			t.ProcessedAt = &processedAt.Time
		}
		if nextRetryAt.Valid {
			t.NextRetryAt = &nextRetryAt.Time
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync tasks: %w", err)
	}
	return tasks, nil
}
