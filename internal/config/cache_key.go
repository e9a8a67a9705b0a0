package config

import (
	"fmt"
)

// Profile keys stored per learner in the key-value store.
const (
	ProfileSettings   = "settings"
	ProfileProgress   = "progress"
	ProfileFlashcards = "flashcards"
	ProfileCustomBank = "customBank"
	ProfileStudySet   = "studySet"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LearnerKey returns the namespaced key for one of a learner's profile entries.
func (r *CacheKeyStruct) LearnerKey(learnerID, name string) string {
	return fmt.Sprintf("learner:%s:%s", learnerID, name)
}

// ActiveSessionKey returns the key of an in-flight exam or practice session.
func (r *CacheKeyStruct) ActiveSessionKey(learnerID, sessionID string) string {
	return fmt.Sprintf("learner:%s:session:%s", learnerID, sessionID)
}

// SyncStatusKey holds the last published sync state of a learner.
func (r *CacheKeyStruct) SyncStatusKey(learnerID string) string {
	return fmt.Sprintf("sync:%s:status", learnerID)
}

// SyncStatusChannel is the Redis PubSub channel for a learner's sync state.
func (r *CacheKeyStruct) SyncStatusChannel(learnerID string) string {
	return fmt.Sprintf("sync:%s:events", learnerID)
}

// SyncPendingKey counts queued tasks per learner.
func (r *CacheKeyStruct) SyncPendingKey(learnerID string) string {
	return fmt.Sprintf("sync:%s:pending", learnerID)
}

// RevokedTokenKey marks a logged-out token id.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
