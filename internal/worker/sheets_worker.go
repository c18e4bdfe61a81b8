package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bamboowoods/internal/domain"
	"bamboowoods/internal/metrics"
	"bamboowoods/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
	TaskReplaceAll   = "replace_all"
)

// taskPayload is persisted in SyncTask.Payload as JSON.
type taskPayload struct {
	BookingID int64           `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Status    models.Status   `json:"status,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
}

// BookingRanger loads the bookings a full resync writes out.
type BookingRanger interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// SheetsWorker drains the sync_queue into the bookings spreadsheet. Tasks
// are always persisted first; redis or the in-memory channel only wake the
// worker early.
type SheetsWorker struct {
	queue         domain.SyncQueueRepository
	sheets        domain.SheetsWriter
	bookings      BookingRanger
	redis         *redis.Client
	retryPolicy   RetryPolicy
	local         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
	now           func() time.Time
}

func NewSheetsWorker(
	queue domain.SyncQueueRepository,
	sheets domain.SheetsWriter,
	bookings BookingRanger,
	redisClient *redis.Client,
	retry RetryPolicy,
	logger *zerolog.Logger,
) *SheetsWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		queue:         queue,
		sheets:        sheets,
		bookings:      bookings,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		local:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "bw:sheets:queue",
		deadLetterKey: "bw:sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
		now:           time.Now,
	}
}

// EnqueueTask records a row change for the spreadsheet mirror.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status models.Status) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 && booking != nil {
		bookingID = booking.ID
	}
	if bookingID == 0 {
		return errors.New("booking id is required")
	}
	return w.enqueue(ctx, taskType, taskPayload{BookingID: bookingID, Booking: booking, Status: status})
}

// EnqueueFullSync schedules a rewrite of the whole sheet with the bookings
// dated within [start, end].
func (w *SheetsWorker) EnqueueFullSync(ctx context.Context, start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("invalid range %s..%s", start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return w.enqueue(ctx, TaskReplaceAll, taskPayload{
		From: start.Format(models.DateLayout),
		To:   end.Format(models.DateLayout),
	})
}

func (w *SheetsWorker) enqueue(ctx context.Context, taskType string, payload taskPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(raw),
		Status:    models.TaskStatusPending,
	}
	if err := w.queue.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("sheets_worker: redis push failed, using memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.local <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("sheets_worker: memory queue full, task left to polling")
	}
	return nil
}

// Start runs until ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets_worker: started")
	defer w.logger.Info().Msg("sheets_worker: stopped")

	if n, err := w.queue.ReleaseSyncTasks(ctx); err != nil {
		w.logger.Error().Err(err).Msg("sheets_worker: release unfinished tasks")
	} else if n > 0 {
		w.logger.Info().Int64("count", n).Msg("sheets_worker: resumed unfinished tasks")
	}

	for ctx.Err() == nil {
		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}
		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}
		if n := w.drainPending(ctx); n == 0 {
			w.sleep(ctx)
		}
	}
}

// drainPending processes one batch of due tasks and reports how many it saw.
func (w *SheetsWorker) drainPending(ctx context.Context) int {
	tasks, err := w.queue.GetPendingSyncTasks(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("sheets_worker: fetch pending")
		}
		return 0
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *SheetsWorker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.local:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("sheets_worker: redis BRPOP")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Warn().Err(err).Msg("sheets_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

// processTask runs a task only if it can claim the row. The same task may
// arrive through redis or the memory queue and through polling.
func (w *SheetsWorker) processTask(ctx context.Context, queued *models.SyncTask) {
	task, err := w.queue.ClaimSyncTask(ctx, queued.ID)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", queued.ID).Msg("sheets_worker: claim task")
		return
	}
	if task == nil {
		w.logger.Debug().Int64("task_id", queued.ID).Msg("sheets_worker: task not due or already taken")
		return
	}

	payload, err := decodePayload(task.Payload)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleSheetTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncSyncTask(models.TaskStatusCompleted)
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sheets_worker: mark completed")
	}
}

func (w *SheetsWorker) handleSheetTask(ctx context.Context, taskType string, p taskPayload) error {
	switch taskType {
	case TaskUpsert:
		if p.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, p.Booking)
	case TaskUpdateStatus:
		if p.BookingID == 0 || p.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sheets.UpdateBookingStatus(ctx, p.BookingID, p.Status)
	case TaskReplaceAll:
		if w.bookings == nil {
			return errors.New("no booking source for full sync")
		}
		from, err := time.Parse(models.DateLayout, p.From)
		if err != nil {
			return fmt.Errorf("full sync start: %w", err)
		}
		to, err := time.Parse(models.DateLayout, p.To)
		if err != nil {
			return fmt.Errorf("full sync end: %w", err)
		}
		bookings, err := w.bookings.GetBookingsByDateRange(ctx, from, to)
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		return w.sheets.ReplaceBookingsSheet(ctx, bookings)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	metrics.IncSyncTask(models.TaskStatusRetry)
	next := w.now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", next).
		Msg("sheets_worker: task will be retried")
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sheets_worker: mark retry")
	}
}

func (w *SheetsWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	metrics.IncSyncTask(models.TaskStatusFailed)
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("task", task.TaskType).Msg("sheets_worker: task failed")
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sheets_worker: mark failed")
	}
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("sheets_worker: deadletter push")
		}
	}
}

func decodePayload(raw string) (taskPayload, error) {
	var payload taskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (w *SheetsWorker) pushRedis(ctx context.Context, key string, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
