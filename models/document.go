// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// Document is a JSON document held by the remote store. Version is assigned by
// the server: 1 on creation, incremented on every successful write.
type Document struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Version    int64           `json:"version"`
	Deleted    bool            `json:"deleted"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// DocumentList is the response body of list and query endpoints.
type DocumentList struct {
	Documents []Document `json:"documents"`
	Length    int        `json:"length"`
}

// DocumentWrite is the request body of create and update endpoints.
type DocumentWrite struct {
	ID   string          `json:"id" validate:"required,max=64"`
	Data json.RawMessage `json:"data" validate:"required,jsonobject"`
}
