// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys,
// HTTP response writing, HTTP client initialization, JWT token generation
// and validation, and id generation.
package utils

import (
	"context"

	"github.com/MKhiriev/go-farm-sync/models"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// TokenCtxKey is the key under which the authenticated request's token is
// stored in the context.
var TokenCtxKey = contextKey("token")

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token *models.Token) context.Context {
	return context.WithValue(ctx, TokenCtxKey, token)
}

// GetTokenFromContext retrieves the token stored by WithToken.
//
// Returns ok == false when the value is missing or has an unexpected type.
//
// Example usage:
//
//	token, ok := utils.GetTokenFromContext(ctx)
//	if !ok {
//	    // handle unauthenticated request
//	}
func GetTokenFromContext(ctx context.Context) (*models.Token, bool) {
	token, ok := ctx.Value(TokenCtxKey).(*models.Token)
	return token, ok && token != nil
}
