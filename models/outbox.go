// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// OperationType is the kind of mutation an outbox entry records.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

// OutboxStatus is the lifecycle state of an outbox entry.
//
//	PENDING -> SUCCESS
//	PENDING -> FAILED -> ... -> SUCCESS
//	FAILED with RetryCount >= max stays FAILED until reset.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusFailed  OutboxStatus = "FAILED"
	OutboxStatusSuccess OutboxStatus = "SUCCESS"
)

// OutboxEntry is one pending mutation waiting to reach the remote store.
type OutboxEntry struct {
	ID            string        `json:"id"`
	EntityType    EntityType    `json:"entityType"`
	EntityID      string        `json:"entityId"`
	OperationType OperationType `json:"operationType"`
	// Payload is the JSON snapshot of the entity at enqueue time. The drain
	// re-reads the current local row and uses this only for diagnostics.
	Payload       []byte       `json:"payload,omitempty"`
	Status        OutboxStatus `json:"status"`
	RetryCount    int          `json:"retryCount"`
	Priority      Priority     `json:"priority"`
	CreatedAt     time.Time    `json:"createdAt"`
	LastAttemptAt *time.Time   `json:"lastAttemptAt,omitempty"`
	ErrorMessage  string       `json:"errorMessage,omitempty"`
}

// EntityKey identifies the entity an entry refers to.
func (e OutboxEntry) EntityKey() string {
	return string(e.EntityType) + "/" + e.EntityID
}

// OutboxStatusCounts is a per-status count of outbox rows.
type OutboxStatusCounts map[OutboxStatus]int
