package model

import "encoding/json"

// SyncTaskType enumerates mirrored payload kinds.
type SyncTaskType string

const (
	SyncTaskAttempt SyncTaskType = "attempt"
	SyncTaskStats   SyncTaskType = "stats"
)

// SyncTask is an opaque unit of work for the cloud mirror. CreatedAt is unix millis.
type SyncTask struct {
	ID        string          `json:"id"`
	Type      SyncTaskType    `json:"type"`
	LearnerID string          `json:"learnerId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt int64           `json:"createdAt"`
	Attempts  int             `json:"attempts,omitempty"`
}

// SyncStatus is the mirror's connectivity state.
type SyncStatus string

const (
	SyncStatusOffline SyncStatus = "offline"
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

// SyncState is the payload returned by the status endpoint and stream.
type SyncState struct {
	Status  SyncStatus `json:"status"`
	Pending int64      `json:"pending"`
	Error   string     `json:"error,omitempty"`
}
