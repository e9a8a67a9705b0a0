package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/exprep-backend/internal/model"
)

// AttemptMirrorRepository is the server side of the sync queue. Writes are
// idempotent on the task id so redelivered tasks are harmless.
type AttemptMirrorRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptMirrorRepository creates a new AttemptMirrorRepository.
func NewAttemptMirrorRepository(pool *pgxpool.Pool) *AttemptMirrorRepository {
	return &AttemptMirrorRepository{pool: pool}
}

// SaveAttempt stores a mirrored session record. It reports false when the task
// had already been applied.
func (r *AttemptMirrorRepository) SaveAttempt(ctx context.Context, task model.SyncTask) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO mirrored_attempts (task_id, learner_id, payload, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (task_id) DO NOTHING`,
		task.ID, task.LearnerID, []byte(task.Payload), time.UnixMilli(task.CreatedAt))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SaveStats replaces the learner's mirrored counters unless a newer snapshot is
// already stored.
func (r *AttemptMirrorRepository) SaveStats(ctx context.Context, task model.SyncTask) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO mirrored_stats (learner_id, task_id, payload, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (learner_id) DO UPDATE
		   SET task_id = EXCLUDED.task_id, payload = EXCLUDED.payload, created_at = EXCLUDED.created_at
		   WHERE mirrored_stats.created_at < EXCLUDED.created_at`,
		task.LearnerID, task.ID, []byte(task.Payload), time.UnixMilli(task.CreatedAt))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountAttempts returns how many records are mirrored for a learner.
func (r *AttemptMirrorRepository) CountAttempts(ctx context.Context, learnerID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mirrored_attempts WHERE learner_id = $1`, learnerID).Scan(&n)
	return n, err
}
