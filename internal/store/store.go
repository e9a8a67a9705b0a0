// Package store is the durable key-value layer behind every learner profile.
// Values are JSON documents; reads that find nothing or cannot decode fall back
// to a caller-supplied default.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by KV.Get when the key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// KV is the contract every backend implements. A zero ttl means no expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Take returns the value and deletes the key in one step. Of concurrent
	// callers at most one gets the value; the rest get ErrNotFound.
	Take(ctx context.Context, key string) ([]byte, error)
}

// Purger is implemented by backends that keep expired rows until swept. Redis
// expires keys itself and does not need it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// GetJSON decodes key into a T. Missing keys yield fallback silently; read and
// decode failures yield fallback with a warning.
func GetJSON[T any](ctx context.Context, kv KV, log zerolog.Logger, key string, fallback T) T {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Store read failed, using default")
		return fallback
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stored value is corrupt, using default")
		return fallback
	}
	return v
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
