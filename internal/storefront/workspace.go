// Package storefront binds the per-user state modules (cart, wishlist,
// loyalty) to that user's session and keeps one such workspace per signed-in
// user.
package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/cart"
	"github.com/example/maison/internal/loyalty"
	"github.com/example/maison/internal/notify"
	"github.com/example/maison/internal/session"
	"github.com/example/maison/internal/wishlist"
)

// Repository is everything the state modules read and write remotely.
type Repository interface {
	wishlist.Repository
	loyalty.Repository
}

// Workspace is one user's live storefront state.
type Workspace struct {
	Sessions *session.Manager
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Loyalty  *loyalty.Loyalty
	Notices  *notify.Recorder

	lastSeen time.Time
}

func newWorkspace(repo Repository, log *zap.Logger) *Workspace {
	sessions := session.NewManager()
	notices := notify.NewRecorder()
	n := notify.Logged(notices, log)
	return &Workspace{
		Sessions: sessions,
		Cart:     cart.New(n),
		Wishlist: wishlist.New(sessions, repo, n, log),
		Loyalty:  loyalty.New(sessions, repo, n, log),
		Notices:  notices,
	}
}

func (w *Workspace) close() {
	w.Wishlist.Close()
	w.Loyalty.Close()
}

// Registry holds the workspaces of signed-in users.
type Registry struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time

	mu     sync.Mutex
	byUser map[uuid.UUID]*Workspace
}

// NewRegistry returns an empty registry.
func NewRegistry(repo Repository, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		repo:   repo,
		log:    log.Named("storefront"),
		now:    time.Now,
		byUser: make(map[uuid.UUID]*Workspace),
	}
}

// Acquire returns the workspace of s.UserID, creating it and signing s in
// when none exists. A workspace whose session token differs from s is signed
// in again so its state is re-fetched.
func (r *Registry) Acquire(ctx context.Context, s session.Session) *Workspace {
	r.mu.Lock()
	ws, ok := r.byUser[s.UserID]
	if !ok {
		ws = newWorkspace(r.repo, r.log.With(zap.Stringer("user_id", s.UserID)))
		r.byUser[s.UserID] = ws
	}
	ws.lastSeen = r.now()
	r.mu.Unlock()

	if !ok {
		r.log.Debug("workspace created", zap.Stringer("user_id", s.UserID))
	}
	if current := ws.Sessions.Current(); !current.Authenticated() || current.Token != s.Token {
		ws.Sessions.SignIn(ctx, s)
	}
	return ws
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(userID uuid.UUID) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.byUser[userID]
	return ws, ok
}

// Release signs the user out and forgets the workspace. It resets local
// state only; the session token stays valid until it expires.
func (r *Registry) Release(ctx context.Context, userID uuid.UUID) {
	r.mu.Lock()
	ws, ok := r.byUser[userID]
	delete(r.byUser, userID)
	r.mu.Unlock()

	if !ok {
		return
	}
	ws.Sessions.SignOut(ctx)
	ws.Cart.Clear()
	ws.close()
}

// Sweep releases workspaces not used for longer than idle and returns how
// many were released.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []uuid.UUID
	for id, ws := range r.byUser {
		if ws.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.Release(ctx, id)
	}
	if len(stale) > 0 {
		r.log.Info("released idle workspaces", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx, idle)
		}
	}
}
