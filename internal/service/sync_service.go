package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
)

// SyncService is the producer side of the cloud mirror queue. Tasks are pushed
// to a Redis list drained by worker.SyncWorker; per-learner status lives in
// Redis and is fanned out over PubSub.
type SyncService struct {
	rdb     *redis.Client
	enabled bool
	log     zerolog.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *SyncService {
	return &SyncService{
		rdb:     rdb,
		enabled: cfg.SyncEnabled && rdb != nil,
		log:     log.With().Str("component", "sync_service").Logger(),
	}
}

// Enabled reports whether tasks are accepted at all.
func (s *SyncService) Enabled() bool { return s.enabled }

// NewSyncTask wraps a payload in a task with a fresh id.
func NewSyncTask(typ model.SyncTaskType, learnerID string, payload any, now time.Time) (model.SyncTask, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.SyncTask{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return model.SyncTask{
		ID:        uuid.NewString(),
		Type:      typ,
		LearnerID: learnerID,
		Payload:   raw,
		CreatedAt: now.UnixMilli(),
	}, nil
}

// Enqueue pushes tasks onto the queue and marks the learners as syncing.
func (s *SyncService) Enqueue(ctx context.Context, tasks ...model.SyncTask) error {
	if !s.enabled || len(tasks) == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	learners := map[string]bool{}
	for _, t := range tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal sync task: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.SyncQueue, raw)
		pipe.Incr(ctx, config.CacheKey.SyncPendingKey(t.LearnerID))
		learners[t.LearnerID] = true
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue sync tasks: %w", err)
	}

	for id := range learners {
		if err := s.Publish(ctx, id, model.SyncStatusSyncing, ""); err != nil {
			s.log.Warn().Err(err).Str("learner_id", id).Msg("Failed to publish sync status")
		}
	}
	return nil
}

// Status returns a learner's last known sync state. A learner with nothing
// queued and no recorded state is idle.
func (s *SyncService) Status(ctx context.Context, learnerID string) model.SyncState {
	if !s.enabled {
		return model.SyncState{Status: model.SyncStatusOffline}
	}

	state := model.SyncState{Status: model.SyncStatusIdle}
	raw, err := s.rdb.Get(ctx, config.CacheKey.SyncStatusKey(learnerID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		s.log.Warn().Err(err).Str("learner_id", learnerID).Msg("Failed to read sync status")
		return model.SyncState{Status: model.SyncStatusOffline}
	default:
		if err := json.Unmarshal(raw, &state); err != nil {
			s.log.Warn().Err(err).Str("learner_id", learnerID).Msg("Corrupt sync status, resetting")
			state = model.SyncState{Status: model.SyncStatusIdle}
		}
	}

	state.Pending = s.pending(ctx, learnerID)
	return state
}

// Publish stores and broadcasts a learner's sync state.
func (s *SyncService) Publish(ctx context.Context, learnerID string, status model.SyncStatus, errMsg string) error {
	state := model.SyncState{
		Status:  status,
		Pending: s.pending(ctx, learnerID),
		Error:   errMsg,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SyncStatusKey(learnerID), raw, 0)
	pipe.Publish(ctx, config.CacheKey.SyncStatusChannel(learnerID), raw)
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe opens a PubSub subscription to a learner's status channel. The
// caller must Close it.
func (s *SyncService) Subscribe(ctx context.Context, learnerID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.SyncStatusChannel(learnerID))
}

func (s *SyncService) pending(ctx context.Context, learnerID string) int64 {
	v, err := s.rdb.Get(ctx, config.CacheKey.SyncPendingKey(learnerID)).Result()
	if err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return max(n, 0)
}
