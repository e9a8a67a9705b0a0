package config

type WorkerKeyStruct struct {
	SyncQueue      string
	SyncRetryQueue string
	SyncDeadLetter string
	SyncProcessing string
}

var WorkerKey = &WorkerKeyStruct{
	SyncQueue:      "sync_tasks_queue",
	SyncRetryQueue: "sync_tasks_retry",
	SyncDeadLetter: "sync_tasks_dead",
	SyncProcessing: "sync_tasks_processing",
}

// ProcessingKey is the list holding tasks a worker has claimed but not settled.
func (k *WorkerKeyStruct) ProcessingKey(workerID string) string {
	return k.SyncProcessing + ":" + workerID
}
