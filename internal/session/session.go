package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the per-user, per-process state the browser would keep in
// sessionStorage: the authenticated-user marker and the "has the dashboard
// loaded before" flag. It is injected wherever needed rather than living as
// module-level mutable state.
type Session struct {
	mu              sync.RWMutex
	userID          uuid.UUID
	token           string
	authenticated   bool
	dashboardLoaded bool

	// epoch increments on logout so responses that resolve afterwards can
	// be recognized as stale and dropped.
	epoch uint64
}

func New() *Session {
	return &Session{}
}

// Authenticate records the signed-in user. The token is attached as a bearer
// credential on every platform request.
func (s *Session) Authenticate(userID uuid.UUID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.token = token
	s.authenticated = true
}

// Logout clears all session state, including the first-load flag, and bumps
// the epoch.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = uuid.Nil
	s.token = ""
	s.authenticated = false
	s.dashboardLoaded = false
	s.epoch++
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// UserID returns the signed-in user id; ok is false when signed out.
func (s *Session) UserID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.authenticated
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// MarkDashboardLoaded flips the first-load flag and reports whether this
// call was the first load of the session.
func (s *Session) MarkDashboardLoaded() (first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first = !s.dashboardLoaded
	s.dashboardLoaded = true
	return first
}

// DashboardLoaded reports the flag without flipping it.
func (s *Session) DashboardLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboardLoaded
}

// Epoch returns the current logout generation.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
