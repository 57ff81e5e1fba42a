// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncStatus tracks where a record stands in the local/remote reconciliation
// lifecycle.
type SyncStatus string

const (
	SyncStatusSynced          SyncStatus = "SYNCED"
	SyncStatusPendingUpload   SyncStatus = "PENDING_UPLOAD"
	SyncStatusPendingDownload SyncStatus = "PENDING_DOWNLOAD"
	SyncStatusConflict        SyncStatus = "CONFLICT"
	SyncStatusError           SyncStatus = "ERROR"

	// SyncStatusUploading and SyncStatusDownloading are progress hints only.
	// They are never written to the local store.
	SyncStatusUploading   SyncStatus = "UPLOADING"
	SyncStatusDownloading SyncStatus = "DOWNLOADING"
)

// Priority orders sync draining. Higher values drain first.
type Priority int

const (
	// PriorityUnset makes the repository fall back to the entity type default.
	PriorityUnset  Priority = 0
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityHigh   Priority = 3
)

// String returns the upper-case priority name.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNSET"
	}
}

// EntityType names a syncable entity kind. It doubles as the local table name
// and the remote collection name.
type EntityType string

const (
	EntityFowl            EntityType = "fowls"
	EntityTransfer        EntityType = "transfers"
	EntityListing         EntityType = "listings"
	EntityCoinTransaction EntityType = "coin_transactions"
	EntityMessage         EntityType = "messages"
)

// DefaultPriority returns the drain priority used when an entity does not
// carry one explicitly. Money-moving records drain first.
func (t EntityType) DefaultPriority() Priority {
	switch t {
	case EntityTransfer, EntityCoinTransaction:
		return PriorityHigh
	case EntityFowl, EntityListing, EntityMessage:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// SyncMeta is the state every offline-capable record carries. Domain entities
// embed it and thereby satisfy [Syncable] through their pointer type.
type SyncMeta struct {
	ID              string     `json:"id" validate:"required,max=64"`
	SyncStatus      SyncStatus `json:"-"`
	ConflictVersion int64      `json:"conflictVersion"`
	IsDeleted       bool       `json:"isDeleted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	RetryCount      int        `json:"-"`
	Priority        Priority   `json:"priority"`
	LastSyncTime    *time.Time `json:"-"`
}

// Meta returns the receiver so that embedding types expose their sync state.
func (m *SyncMeta) Meta() *SyncMeta {
	return m
}

// Touch refreshes UpdatedAt, and CreatedAt when it was never set.
func (m *SyncMeta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// MarkPending flags the record as waiting for upload with a fresh retry budget.
func (m *SyncMeta) MarkPending() {
	m.SyncStatus = SyncStatusPendingUpload
	m.RetryCount = 0
}

// MarkSynced records a confirmed remote write at the server-assigned version.
func (m *SyncMeta) MarkSynced(now time.Time, version int64) {
	m.SyncStatus = SyncStatusSynced
	m.RetryCount = 0
	m.ConflictVersion = version
	m.LastSyncTime = &now
}

// Syncable is the contract shared by every persisted domain record.
type Syncable interface {
	Meta() *SyncMeta
	EntityType() EntityType
}
