// Package session holds the authenticated session of one storefront user and
// tells interested state modules when it changes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session describes who is signed in. The zero value is signed out.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != uuid.Nil
}

// Expired reports whether the session carries an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Listener is called after every session change with the new session.
type Listener func(ctx context.Context, s Session)

// Manager owns the current session and its subscribers.
type Manager struct {
	mu        sync.RWMutex
	current   Session
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewManager returns a signed-out manager.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the session in effect.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers l and returns a function that removes it again.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, fn: l})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.listeners {
				if sub.id == id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// SignIn replaces the current session and notifies subscribers.
func (m *Manager) SignIn(ctx context.Context, s Session) {
	m.set(ctx, s)
}

// SignOut clears the current session and notifies subscribers.
func (m *Manager) SignOut(ctx context.Context) {
	m.set(ctx, Session{})
}

func (m *Manager) set(ctx context.Context, s Session) {
	m.mu.Lock()
	m.current = s
	listeners := make([]Listener, len(m.listeners))
	for i, sub := range m.listeners {
		listeners[i] = sub.fn
	}
	m.mu.Unlock()

	// Listeners run outside the lock so they may call Current.
	for _, l := range listeners {
		l(ctx, s)
	}
}
