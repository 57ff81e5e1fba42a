// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"time"

	"github.com/MKhiriev/go-farm-sync/models"
)

// Schema describes how one entity type maps onto its local table. The sync
// metadata columns are shared by every table and handled by the repository;
// the schema only lists the entity-specific columns.
type Schema[E models.Syncable] struct {
	// Table is the SQLite table name.
	Table string
	// Columns are the entity-specific column names in Fields order.
	Columns []string
	// New allocates an empty entity to scan into.
	New func() E
	// Fields returns pointers to the entity-specific fields of e. They serve
	// as scan destinations and, dereferenced by the driver, as bind values.
	Fields func(e E) []any
}

var metaColumns = []string{
	"id",
	"sync_status",
	"conflict_version",
	"is_deleted",
	"created_at",
	"updated_at",
	"retry_count",
	"priority",
	"last_sync_time",
}

func (s Schema[E]) allColumns() []string {
	cols := make([]string, 0, len(metaColumns)+len(s.Columns))
	cols = append(cols, metaColumns...)
	return append(cols, s.Columns...)
}

func (s Schema[E]) scanDest(e E) []any {
	m := e.Meta()
	dest := []any{
		&m.ID,
		&m.SyncStatus,
		&m.ConflictVersion,
		&m.IsDeleted,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.RetryCount,
		&m.Priority,
		&m.LastSyncTime,
	}
	return append(dest, s.Fields(e)...)
}

func (s Schema[E]) values(e E) []any {
	m := e.Meta()
	vals := []any{
		m.ID,
		string(m.SyncStatus),
		m.ConflictVersion,
		m.IsDeleted,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
		m.RetryCount,
		int(m.Priority),
		utcPtr(m.LastSyncTime),
	}
	return append(vals, s.Fields(e)...)
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// FowlSchema maps [models.Fowl] onto the "fowls" table.
var FowlSchema = Schema[*models.Fowl]{
	Table:   string(models.EntityFowl),
	Columns: []string{"owner_id", "name", "breed", "gender", "birth_date", "weight_grams", "color", "status"},
	New:     func() *models.Fowl { return &models.Fowl{} },
	Fields: func(f *models.Fowl) []any {
		return []any{&f.OwnerID, &f.Name, &f.Breed, &f.Gender, &f.BirthDate, &f.WeightGrams, &f.Color, &f.Status}
	},
}

// TransferSchema maps [models.Transfer] onto the "transfers" table.
var TransferSchema = Schema[*models.Transfer]{
	Table:   string(models.EntityTransfer),
	Columns: []string{"fowl_id", "from_user_id", "to_user_id", "status", "amount_cents", "notes"},
	New:     func() *models.Transfer { return &models.Transfer{} },
	Fields: func(t *models.Transfer) []any {
		return []any{&t.FowlID, &t.FromUserID, &t.ToUserID, &t.Status, &t.AmountCents, &t.Notes}
	},
}

// ListingSchema maps [models.Listing] onto the "listings" table.
var ListingSchema = Schema[*models.Listing]{
	Table:   string(models.EntityListing),
	Columns: []string{"seller_id", "fowl_id", "title", "description", "price_cents", "region", "status"},
	New:     func() *models.Listing { return &models.Listing{} },
	Fields: func(l *models.Listing) []any {
		return []any{&l.SellerID, &l.FowlID, &l.Title, &l.Description, &l.PriceCents, &l.Region, &l.Status}
	},
}

// CoinTransactionSchema maps [models.CoinTransaction] onto the
// "coin_transactions" table.
var CoinTransactionSchema = Schema[*models.CoinTransaction]{
	Table:   string(models.EntityCoinTransaction),
	Columns: []string{"user_id", "amount", "kind", "reference_id", "description"},
	New:     func() *models.CoinTransaction { return &models.CoinTransaction{} },
	Fields: func(c *models.CoinTransaction) []any {
		return []any{&c.UserID, &c.Amount, &c.Kind, &c.ReferenceID, &c.Description}
	},
}

// MessageSchema maps [models.Message] onto the "messages" table.
var MessageSchema = Schema[*models.Message]{
	Table:   string(models.EntityMessage),
	Columns: []string{"conversation_id", "sender_id", "recipient_id", "body", "read_at"},
	New:     func() *models.Message { return &models.Message{} },
	Fields: func(m *models.Message) []any {
		return []any{&m.ConversationID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt}
	},
}
