// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

var (
	// errNoHandlersAreCreated is returned by NewHandlers when the server
	// configuration carries no HTTP address.
	errNoHandlersAreCreated = errors.New("no handlers are created")

	// errMissingServices is returned when the document or auth service is nil.
	errMissingServices = errors.New("document and auth services are required")
)
