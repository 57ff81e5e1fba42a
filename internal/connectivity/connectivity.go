// Package connectivity tells the sync layer whether the remote store can be
// reached right now.
//
// The answer is a snapshot: a positive result does not guarantee that the
// next remote call succeeds, and callers still handle remote failures.
package connectivity

import "sync/atomic"

// Connectivity reports whether the node is online.
type Connectivity interface {
	IsOnline() bool
}

// Static is a settable [Connectivity].
type Static struct {
	online atomic.Bool
}

// NewStatic returns a Static reporting online.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

// IsOnline implements [Connectivity].
func (s *Static) IsOnline() bool {
	return s.online.Load()
}

// SetOnline updates the state and reports whether it changed.
func (s *Static) SetOnline(online bool) bool {
	return s.online.Swap(online) != online
}
