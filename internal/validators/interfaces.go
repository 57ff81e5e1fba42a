// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks what crosses a sync boundary: entities before
// they are written locally, queries before they reach either store, and
// documents and collection names arriving at the document server.
//
// A failed check is reported as one of the package sentinels wrapped with
// the offending json field paths. Callers wrap it in their own validation
// error and match on the sentinel with errors.Is.
package validators

import "context"

// Validator checks a value before it is stored or sent. When fields are
// given, only those Go struct fields are checked, which lets a partial
// update skip columns it did not touch.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
