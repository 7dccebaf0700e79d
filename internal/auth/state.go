// Package auth holds the signed-in identity that lets a user bypass the
// anonymous request quota.
package auth

import (
	"sync"

	"github.com/liliang-cn/doc0/internal/domain"
)

// State holds the current identity for the lifetime of the process.
// The zero value is anonymous.
type State struct {
	mu       sync.RWMutex
	identity *domain.Identity
}

// NewState returns an anonymous state.
func NewState() *State {
	return &State{}
}

// Login replaces the current identity.
func (s *State) Login(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

// Logout clears the current identity.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}

// Identity returns the signed-in identity, if any.
func (s *State) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

// IsAuthenticated reports whether an identity is present.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}
