package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// FilterOp is a comparison supported by the remote document store.
type FilterOp string

const (
	OpEqual          FilterOp = "=="
	OpNotEqual       FilterOp = "!="
	OpLess           FilterOp = "<"
	OpLessOrEqual    FilterOp = "<="
	OpGreater        FilterOp = ">"
	OpGreaterOrEqual FilterOp = ">="
)

// Valid reports whether op is one of the supported comparisons.
func (op FilterOp) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return true
	}
	return false
}

// Filter is a single field comparison against a document's JSON body.
type Filter struct {
	Field string   `json:"field" validate:"required,fieldname"`
	Op    FilterOp `json:"op" validate:"filterop"`
	Value any      `json:"value"`
}

// Query is a filtered range query over one collection.
type Query struct {
	Collection string   `json:"collection" validate:"required,collection"`
	Filters    []Filter `json:"filters,omitempty" validate:"dive"`
	OrderBy    string   `json:"orderBy,omitempty" validate:"omitempty,fieldname"`
	Descending bool     `json:"descending,omitempty"`
	Limit      int      `json:"limit,omitempty" validate:"gte=0,lte=500"`
	Offset     int      `json:"offset,omitempty" validate:"gte=0"`
}

// Where appends a filter and returns the query for chaining.
func (q Query) Where(field string, op FilterOp, value any) Query {
	q.Filters = append(slices.Clone(q.Filters), Filter{Field: field, Op: op, Value: value})
	return q
}

// Signature is a canonical key for q. Two queries that differ only in filter
// order share a signature.
func (q Query) Signature() string {
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		v, err := json.Marshal(f.Value)
		if err != nil {
			v = []byte("?")
		}
		parts = append(parts, f.Field+string(f.Op)+string(v))
	}
	slices.Sort(parts)

	var b strings.Builder
	b.WriteString(q.Collection)
	b.WriteString("|")
	b.WriteString(strings.Join(parts, "&"))
	b.WriteString("|")
	b.WriteString(q.OrderBy)
	if q.Descending {
		b.WriteString(" desc")
	}
	b.WriteString("|")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(q.Offset))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Page is an offset/limit window.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize applies the default limit of 50 and caps it at 500.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
