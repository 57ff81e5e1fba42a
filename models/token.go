package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeAll grants access to every collection.
const ScopeAll = "*"

// Token wraps a JWT issued to a sync node.
//
// The subject claim carries the node (or user) identifier; Collections lists
// the collections the bearer may read and write.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// Collections is the access scope. [ScopeAll] covers everything.
	Collections []string `json:"collections,omitempty"`

	// SignedString is the compact JWS form of the token.
	SignedString string `json:"-"`
}

// Allows reports whether the token scope covers collection.
func (t *Token) Allows(collection string) bool {
	return slices.Contains(t.Collections, ScopeAll) || slices.Contains(t.Collections, collection)
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
