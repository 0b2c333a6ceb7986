// Package session holds process-wide "who is signed in" state: the current
// actor and the last successfully fetched entitlements. The store is the only
// place this state lives; nothing reads ambient globals directly.
package session

import (
	"sync"

	"github.com/complypoint/complyctl/pkg/entitlements"
)

// Store is scoped to the lifetime of one authenticated session. Changing the
// actor (including logout, actor == "") discards cached entitlements so stale
// decisions from a previous account can never leak across.
type Store struct {
	mu           sync.RWMutex
	actor        string
	entitlements *entitlements.Entitlements
}

func NewStore() *Store { return &Store{} }

// SetActor records the signed-in account. Any actor change resets cached
// entitlements.
func (s *Store) SetActor(actor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actor != actor {
		s.entitlements = nil
	}
	s.actor = actor
}

func (s *Store) Actor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// SetEntitlements stores the result of a successful fetch. Call with nil after
// a failed fetch so gates fail closed.
func (s *Store) SetEntitlements(e *entitlements.Entitlements) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements = e
}

// Entitlements returns the cached decision set, nil when never fetched or
// reset by an actor change.
func (s *Store) Entitlements() *entitlements.Entitlements {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entitlements
}

// HasFeature is the feature-flag predicate. Fail closed: false whenever
// entitlements are unset, the key is absent, or the feature is disabled.
func (s *Store) HasFeature(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entitlements == nil || s.entitlements.Features == nil {
		return false
	}
	f, ok := s.entitlements.Features[key]
	return ok && f.Enabled
}
