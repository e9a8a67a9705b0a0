package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
)

const (
	SyncPollTimeout  = 1 * time.Second
	SyncPromoteEvery = 1 * time.Second
	SyncBaseBackoff  = 1 * time.Second
	SyncMaxAttempts  = 5
	SyncDrainTimeout = 5 * time.Second
	syncApplyTimeout = 10 * time.Second
)

// errUnknownTask marks a task no retry can fix.
var errUnknownTask = errors.New("unknown sync task type")

// Mirror is the remote write side of the sync queue. Both writes are
// idempotent on the task id.
type Mirror interface {
	SaveAttempt(ctx context.Context, task model.SyncTask) (bool, error)
	SaveStats(ctx context.Context, task model.SyncTask) (bool, error)
}

// StatusPublisher broadcasts a learner's sync state.
type StatusPublisher interface {
	Publish(ctx context.Context, learnerID string, status model.SyncStatus, errMsg string) error
}

// promoteScript moves one due retry back onto the queue. Only the caller that
// removes the member requeues it.
var promoteScript = redis.NewScript(`
if redis.call("ZREM", KEYS[1], ARGV[1]) == 1 then
	redis.call("RPUSH", KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// SyncWorker drains the sync queue into the mirror. A claimed task moves to the
// worker's processing list and leaves it only after the mirror confirmed the
// write, or in the same transaction that puts it back on the queue, the retry
// set or the dead letter. Tasks still in the processing list when the worker
// starts are requeued.
type SyncWorker struct {
	rdb        *redis.Client
	processing string
	mirror     Mirror
	status     StatusPublisher
	maxBackoff time.Duration
	batchSize  int64
	log        zerolog.Logger

	outages int
}

// NewSyncWorker creates a new SyncWorker.
func NewSyncWorker(cfg *config.Config, rdb *redis.Client, mirror Mirror, status StatusPublisher, log zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		rdb:        rdb,
		processing: config.WorkerKey.ProcessingKey(cfg.SyncWorkerID),
		mirror:     mirror,
		status:     status,
		maxBackoff: cfg.SyncMaxBackoff,
		batchSize:  int64(max(cfg.SyncBatchSize, 1)),
		log:        log.With().Str("component", "sync_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SyncWorker) Start(ctx context.Context) {
	w.log.Info().Str("processing", w.processing).Msg("Worker started")
	if n, err := w.requeueUnfinished(ctx); err != nil {
		w.log.Error().Err(err).Msg("Failed to requeue unfinished tasks")
	} else if n > 0 {
		w.log.Warn().Int("count", n).Msg("Requeued tasks left unfinished by a previous run")
	}
	go w.promoteLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := context.WithTimeout(context.Background(), SyncDrainTimeout)
			w.drain(drainCtx)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SyncWorker) processNext(ctx context.Context) {
	raw, err := w.rdb.BLMove(ctx, config.WorkerKey.SyncQueue, w.processing, "LEFT", "RIGHT", SyncPollTimeout).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLMove error")
			w.sleep(ctx, SyncPollTimeout)
		}
		return
	}

	if !w.handle(ctx, raw) {
		w.sleep(ctx, Backoff(w.outages, w.maxBackoff))
	}
}

// requeueUnfinished moves every task left in the processing list back to the head of
// the queue and returns how many were moved.
func (w *SyncWorker) requeueUnfinished(ctx context.Context) (int, error) {
	n := 0
	for {
		err := w.rdb.LMove(ctx, w.processing, config.WorkerKey.SyncQueue, "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// handle processes one claimed task and reports false when the mirror is
// unreachable and the task went back to the queue. If Redis rejects the
// hand-off the task stays in the processing list for the next start.
func (w *SyncWorker) handle(ctx context.Context, raw string) bool {
	var task model.SyncTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		w.log.Error().Err(err).Msg("Malformed sync task, moving to dead letter")
		w.release(ctx, raw, func(pipe redis.Pipeliner) {
			pipe.RPush(ctx, config.WorkerKey.SyncDeadLetter, raw)
		})
		return true
	}

	err := w.apply(ctx, task)
	switch {
	case err == nil:
		if w.outages > 0 {
			w.log.Info().Int("outages", w.outages).Msg("Mirror reachable again")
		}
		w.outages = 0
		w.release(ctx, raw, nil)
		w.settle(ctx, task.LearnerID, "")

	case IsConnectivityError(err):
		w.outages++
		w.log.Warn().Err(err).Str("task_id", task.ID).Int("outages", w.outages).Msg("Mirror unreachable, deferring")
		w.release(ctx, raw, func(pipe redis.Pipeliner) {
			pipe.LPush(ctx, config.WorkerKey.SyncQueue, raw)
		})
		w.publish(ctx, task.LearnerID, model.SyncStatusOffline, "")
		return false

	case errors.Is(err, errUnknownTask) || task.Attempts+1 >= SyncMaxAttempts:
		w.log.Error().Err(err).Str("task_id", task.ID).Int("attempts", task.Attempts+1).Msg("Sync task failed permanently")
		if w.release(ctx, raw, func(pipe redis.Pipeliner) {
			pipe.RPush(ctx, config.WorkerKey.SyncDeadLetter, raw)
		}) {
			w.settle(ctx, task.LearnerID, err.Error())
		}

	default:
		task.Attempts++
		delay := Backoff(task.Attempts, w.maxBackoff)
		w.log.Warn().Err(err).Str("task_id", task.ID).Int("attempts", task.Attempts).Dur("retry_in", delay).Msg("Sync task failed, scheduling retry")
		next, merr := json.Marshal(task)
		if merr != nil {
			w.log.Error().Err(merr).Str("task_id", task.ID).Msg("Failed to encode retry")
			break
		}
		due := time.Now().Add(delay).UnixMilli()
		w.release(ctx, raw, func(pipe redis.Pipeliner) {
			pipe.ZAdd(ctx, config.WorkerKey.SyncRetryQueue, redis.Z{Score: float64(due), Member: next})
		})
		w.publish(ctx, task.LearnerID, model.SyncStatusError, err.Error())
	}
	return true
}

// release removes raw from the processing list, in one transaction with
// whatever hand-off fn queues. It reports whether the transaction committed.
func (w *SyncWorker) release(ctx context.Context, raw string, fn func(pipe redis.Pipeliner)) bool {
	_, err := w.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if fn != nil {
			fn(pipe)
		}
		pipe.LRem(ctx, w.processing, 1, raw)
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to release sync task, it stays in the processing list")
		return false
	}
	return true
}

func (w *SyncWorker) apply(ctx context.Context, task model.SyncTask) error {
	ctx, cancel := context.WithTimeout(ctx, syncApplyTimeout)
	defer cancel()

	var (
		applied bool
		err     error
	)
	switch task.Type {
	case model.SyncTaskAttempt:
		applied, err = w.mirror.SaveAttempt(ctx, task)
	case model.SyncTaskStats:
		applied, err = w.mirror.SaveStats(ctx, task)
	default:
		return fmt.Errorf("%w %q", errUnknownTask, task.Type)
	}
	if err != nil {
		return err
	}
	if !applied {
		w.log.Debug().Str("task_id", task.ID).Msg("Sync task already applied")
	}
	return nil
}

// settle removes a finished task from the learner's pending count and
// publishes the resulting state.
func (w *SyncWorker) settle(ctx context.Context, learnerID, errMsg string) {
	key := config.CacheKey.SyncPendingKey(learnerID)
	n, err := w.rdb.Decr(ctx, key).Result()
	if err == nil && n < 0 {
		w.rdb.Set(ctx, key, 0, 0)
		n = 0
	}

	status := model.SyncStatusIdle
	switch {
	case errMsg != "":
		status = model.SyncStatusError
	case n > 0:
		status = model.SyncStatusSyncing
	}
	w.publish(ctx, learnerID, status, errMsg)
}

func (w *SyncWorker) publish(ctx context.Context, learnerID string, status model.SyncStatus, errMsg string) {
	if w.status == nil {
		return
	}
	if err := w.status.Publish(ctx, learnerID, status, errMsg); err != nil {
		w.log.Warn().Err(err).Str("learner_id", learnerID).Msg("Failed to publish sync status")
	}
}

// promoteLoop moves retries whose delay has passed back onto the queue.
func (w *SyncWorker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(SyncPromoteEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.promote(ctx)
		}
	}
}

func (w *SyncWorker) promote(ctx context.Context) {
	due, err := w.rdb.ZRangeByScore(ctx, config.WorkerKey.SyncRetryQueue, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(time.Now().UnixMilli(), 10),
		Count: w.batchSize,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Retry scan error")
		}
		return
	}

	keys := []string{config.WorkerKey.SyncRetryQueue, config.WorkerKey.SyncQueue}
	for _, raw := range due {
		if err := promoteScript.Run(ctx, w.rdb, keys, raw).Err(); err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Retry promote error")
			return
		}
	}
}

// drain applies queued tasks until the queue is empty, the mirror fails or ctx
// expires. Whatever remains stays in Redis for the next start.
func (w *SyncWorker) drain(ctx context.Context) {
	drained := 0
	for ctx.Err() == nil {
		raw, err := w.rdb.LMove(ctx, config.WorkerKey.SyncQueue, w.processing, "LEFT", "RIGHT").Result()
		if err != nil {
			break
		}
		if !w.handle(ctx, raw) {
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining sync tasks")
	}
}

func (w *SyncWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Backoff returns the delay after n consecutive failures: SyncBaseBackoff
// doubled per failure, capped at limit.
func Backoff(n int, limit time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	d := SyncBaseBackoff
	for i := 1; i < n; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

// IsConnectivityError reports whether err means the mirror could not be
// reached, as opposed to rejecting the write.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
