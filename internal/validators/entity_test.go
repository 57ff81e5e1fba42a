// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-farm-sync/models"
)

func validFowl() *models.Fowl {
	return &models.Fowl{
		SyncMeta: models.SyncMeta{ID: "F1"},
		Name:     "Test",
		Gender:   "FEMALE",
		Status:   models.FowlStatusActive,
	}
}

func TestNewEntityValidator(t *testing.T) {
	require.NotNil(t, NewEntityValidator())
}

// ── Entities ─────────────────────────────────────────────────────────────────

func TestEntityValidator_Entities(t *testing.T) {
	v := NewEntityValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		obj     any
		wantErr error
		wantMsg string
	}{
		{name: "valid fowl", obj: validFowl()},
		{
			name: "fowl without name",
			obj: func() *models.Fowl {
				f := validFowl()
				f.Name = ""
				return f
			}(),
			wantErr: ErrInvalidEntity,
			wantMsg: "name is required",
		},
		{
			name: "fowl without id",
			obj: func() *models.Fowl {
				f := validFowl()
				f.ID = ""
				return f
			}(),
			wantErr: ErrInvalidEntity,
			wantMsg: "id is required",
		},
		{
			name: "fowl with unknown status",
			obj: func() *models.Fowl {
				f := validFowl()
				f.Status = "ESCAPED"
				return f
			}(),
			wantErr: ErrInvalidEntity,
			wantMsg: "status must be one of",
		},
		{
			name: "transfer to self",
			obj: &models.Transfer{
				SyncMeta:   models.SyncMeta{ID: "T1"},
				FowlID:     "F1",
				FromUserID: "u-1",
				ToUserID:   "u-1",
				Status:     models.TransferStatusRequested,
			},
			wantErr: ErrInvalidEntity,
			wantMsg: "toUserId must differ from FromUserID",
		},
		{
			name: "zero coin amount",
			obj: &models.CoinTransaction{
				SyncMeta: models.SyncMeta{ID: "C1"},
				UserID:   "u-1",
				Kind:     models.CoinKindReward,
			},
			wantErr: ErrInvalidEntity,
			wantMsg: "amount must not be 0",
		},
		{
			name: "negative listing price",
			obj: &models.Listing{
				SyncMeta:   models.SyncMeta{ID: "L1"},
				SellerID:   "u-1",
				Title:      "Silkie hen",
				PriceCents: -1,
				Region:     "north",
				Status:     models.ListingStatusActive,
			},
			wantErr: ErrInvalidEntity,
			wantMsg: "priceCents must be greater than or equal to 0",
		},
		{
			name: "valid message",
			obj: &models.Message{
				SyncMeta:       models.SyncMeta{ID: "M1"},
				ConversationID: "c-1",
				SenderID:       "u-1",
				RecipientID:    "u-2",
				Body:           "is the hen still available?",
			},
		},
		{name: "nil entity", obj: (*models.Fowl)(nil), wantErr: ErrNilEntity},
		{name: "unsupported", obj: 42, wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.obj)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestEntityValidator_PartialFields(t *testing.T) {
	v := NewEntityValidator()
	ctx := context.Background()

	f := validFowl()
	f.Name = ""

	// only the id is checked, the missing name is ignored
	require.NoError(t, v.Validate(ctx, f, "ID"))

	err := v.Validate(ctx, f, "Name")
	require.ErrorIs(t, err, ErrInvalidEntity)

	err = v.Validate(ctx, f, "Wingspan")
	require.ErrorIs(t, err, ErrUnknownField)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestEntityValidator_Query(t *testing.T) {
	v := NewEntityValidator()
	ctx := context.Background()

	valid := models.Query{Collection: "listings", OrderBy: "priceCents", Limit: 20}.
		Where("region", models.OpEqual, "north").
		Where("priceCents", models.OpLessOrEqual, 5000)

	tests := []struct {
		name    string
		q       any
		wantErr bool
	}{
		{name: "valid", q: valid},
		{name: "valid pointer", q: &valid},
		{name: "missing collection", q: models.Query{}, wantErr: true},
		{name: "bad collection", q: models.Query{Collection: "Fowls; drop"}, wantErr: true},
		{name: "bad operator", q: models.Query{Collection: "fowls"}.Where("name", "~=", "x"), wantErr: true},
		{name: "bad field", q: models.Query{Collection: "fowls"}.Where("a.b", models.OpEqual, 1), wantErr: true},
		{name: "bad order by", q: models.Query{Collection: "fowls", OrderBy: "name desc"}, wantErr: true},
		{name: "limit too large", q: models.Query{Collection: "fowls", Limit: 501}, wantErr: true},
		{name: "negative offset", q: models.Query{Collection: "fowls", Offset: -1}, wantErr: true},
		{name: "nil pointer", q: (*models.Query)(nil), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.q)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}

	assert.ErrorIs(t, v.Validate(ctx, models.Query{}), ErrInvalidQuery)
}

// ── Documents ────────────────────────────────────────────────────────────────

func TestEntityValidator_DocumentWrite(t *testing.T) {
	v := NewEntityValidator()
	ctx := context.Background()

	require.NoError(t, v.Validate(ctx, models.DocumentWrite{ID: "F1", Data: json.RawMessage(`{"name":"Test"}`)}))

	err := v.Validate(ctx, models.DocumentWrite{ID: "F1", Data: json.RawMessage(`[1,2]`)})
	require.ErrorIs(t, err, ErrInvalidDocument)
	assert.Contains(t, err.Error(), "data must be a JSON object")

	err = v.Validate(ctx, &models.DocumentWrite{Data: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrInvalidDocument)
	assert.Contains(t, err.Error(), "id is required")

	require.ErrorIs(t, v.Validate(ctx, models.DocumentWrite{ID: "F1"}), ErrInvalidDocument)
}

func TestEntityValidator_CollectionName(t *testing.T) {
	v := NewEntityValidator()
	ctx := context.Background()

	for _, name := range []string{"fowls", "coin_transactions", "a1"} {
		assert.NoError(t, v.Validate(ctx, CollectionName(name)), name)
	}
	for _, name := range []string{"", "Fowls", "1fowls", "fowls/../x", "fowls-old"} {
		assert.ErrorIs(t, v.Validate(ctx, CollectionName(name)), ErrInvalidName, name)
	}
}
