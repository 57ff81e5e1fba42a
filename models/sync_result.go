package models

// SyncErrorType classifies a per-item failure in a sync summary.
type SyncErrorType string

const (
	SyncErrorNetwork    SyncErrorType = "NETWORK_ERROR"
	SyncErrorAuth       SyncErrorType = "AUTH_ERROR"
	SyncErrorPermission SyncErrorType = "PERMISSION_ERROR"
	SyncErrorValidation SyncErrorType = "VALIDATION_ERROR"
	SyncErrorLocal      SyncErrorType = "LOCAL_ERROR"
)

// SyncError describes why a single entity failed to sync.
type SyncError struct {
	EntityID  string        `json:"entityId"`
	ErrorType SyncErrorType `json:"errorType"`
	Message   string        `json:"message"`
}

// SyncResult summarizes a bulk drain of one entity type.
//
// ConflictCount is always zero: conflicts are not detected, the last write wins.
type SyncResult struct {
	EntityType    EntityType  `json:"entityType"`
	TotalItems    int         `json:"totalItems"`
	SuccessCount  int         `json:"successCount"`
	FailureCount  int         `json:"failureCount"`
	ConflictCount int         `json:"conflictCount"`
	Errors        []SyncError `json:"errors,omitempty"`
}

// DrainResult summarizes one pass of the outbox processor.
type DrainResult struct {
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	Errors    []SyncError `json:"errors,omitempty"`
}

// CleanupResult counts the rows removed by one cleanup pass.
type CleanupResult struct {
	OutboxSucceeded int64 `json:"outboxSucceeded"`
	OutboxExhausted int64 `json:"outboxExhausted"`
	EntitiesPurged  int64 `json:"entitiesPurged"`
	EntitiesEvicted int64 `json:"entitiesEvicted"`
}

// StatusReport is a point-in-time view of the node's sync backlog.
type StatusReport struct {
	Online          bool               `json:"online"`
	Outbox          OutboxStatusCounts `json:"outbox"`
	PendingEntities map[EntityType]int `json:"pendingEntities"`
}
