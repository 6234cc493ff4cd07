package pto

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one hosted PTO view. It records the navigation requests of its
// controller so the host can follow them.
type Session struct {
	ID         string
	TenantID   string
	UserID     string
	CreatedAt  time.Time
	Controller *Controller

	mu             sync.Mutex
	lastSeen       time.Time
	lastNavigation *PageReference
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// LastNavigation returns the most recent page the controller asked for.
func (s *Session) LastNavigation() (PageReference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastNavigation == nil {
		return PageReference{}, false
	}
	return *s.lastNavigation, true
}

func (s *Session) recordNavigation(ref PageReference) {
	s.mu.Lock()
	s.lastNavigation = &ref
	s.mu.Unlock()
}

type sessionNavigator struct {
	session *Session
	next    Navigator
}

func (n sessionNavigator) Navigate(ctx context.Context, ref PageReference) {
	n.session.recordNavigation(ref)
	if n.next != nil {
		n.next.Navigate(ctx, ref)
	}
}

// Registry keeps sessions until they sit idle for longer than the TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: map[string]*Session{}, ttl: ttl, now: time.Now}
}

// Create registers a session. The controller is built by newController and
// receives a Navigator that records navigation on the session.
func (r *Registry) Create(tenantID, userID string, newController func(nav Navigator) *Controller) *Session {
	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		CreatedAt: now,
		lastSeen:  now,
	}
	s.Controller = newController(sessionNavigator{session: s})

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
