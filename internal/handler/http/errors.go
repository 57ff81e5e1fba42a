// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors returned to API callers by the middleware and request
// decoding. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned when the request carries no
	// "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the header is not of
	// the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrCollectionForbidden is returned when the token scope does not cover
	// the requested collection.
	ErrCollectionForbidden = errors.New("collection is outside the token scope")

	ErrInvalidJSON      = errors.New("invalid JSON was passed")
	ErrInvalidPageParam = errors.New("limit and offset must be integers")
	ErrIDMismatch       = errors.New("document id in body does not match the path")
	ErrQueryCollection  = errors.New("query collection does not match the path")
)
