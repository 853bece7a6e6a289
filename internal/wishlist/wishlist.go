// Package wishlist keeps the saved products of the signed-in user in sync
// with the database.
package wishlist

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/notify"
	"github.com/example/maison/internal/session"
	"github.com/example/maison/internal/store"
)

// State is the lifecycle of the local wishlist cache.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Repository is the remote collection backing the wishlist. Insert must
// return store.ErrAlreadyExists for a duplicate (user, product) pair.
type Repository interface {
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	InsertWishlistItem(ctx context.Context, item *models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, userID uuid.UUID, productID int64) error
	ClearWishlist(ctx context.Context, userID uuid.UUID) error
}

// Product is what the storefront knows about a product when saving it.
type Product struct {
	ExternalID string
	Name       string
	Image      string
	Price      float64
}

// Wishlist is the local, possibly stale, view of a user's saved products.
type Wishlist struct {
	sessions *session.Manager
	repo     Repository
	notifier notify.Notifier
	log      *zap.Logger

	mu    sync.RWMutex
	state State
	items []models.WishlistItem
	err   error
	// generation tags fetches; only the newest one may write items.
	generation uint64

	unsubscribe func()
}

// New builds a Wishlist bound to sessions. It re-fetches on every sign-in and
// clears itself on sign-out. Call Load to fetch for an already signed-in
// session.
func New(sessions *session.Manager, repo Repository, n notify.Notifier, log *zap.Logger) *Wishlist {
	if n == nil {
		n = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wishlist{
		sessions: sessions,
		repo:     repo,
		notifier: n,
		log:      log.Named("wishlist"),
	}
	w.unsubscribe = sessions.Subscribe(w.onSessionChange)
	return w
}

// Close detaches the wishlist from session changes.
func (w *Wishlist) Close() {
	w.unsubscribe()
}

func (w *Wishlist) onSessionChange(ctx context.Context, s session.Session) {
	if !s.Authenticated() {
		w.reset()
		return
	}
	w.refresh(ctx, s.UserID)
}

// Load fetches the wishlist for the current session.
func (w *Wishlist) Load(ctx context.Context) {
	s := w.sessions.Current()
	if !s.Authenticated() {
		w.reset()
		return
	}
	w.refresh(ctx, s.UserID)
}

func (w *Wishlist) reset() {
	w.mu.Lock()
	w.generation++
	w.state = StateUnauthenticated
	w.items = nil
	w.err = nil
	w.mu.Unlock()
}

func (w *Wishlist) refresh(ctx context.Context, userID uuid.UUID) {
	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.state = StateLoading
	w.mu.Unlock()

	items, err := w.repo.ListWishlist(ctx, userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.log.Debug("discarding superseded wishlist fetch", zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		w.log.Error("failed to fetch wishlist", zap.Stringer("user_id", userID), zap.Error(err))
		w.state = StateError
		w.err = err
		return
	}
	w.state = StateLoaded
	w.items = items
	w.err = nil
}

// Add saves p for the signed-in user. It returns false when nobody is signed
// in, when the product is already saved, or when the write fails.
func (w *Wishlist) Add(ctx context.Context, p Product) bool {
	s := w.sessions.Current()
	if !s.Authenticated() {
		notify.Error(w.notifier, "Please sign in", "Sign in to save items to your wishlist.")
		return false
	}

	item := models.WishlistItem{
		UserID:     s.UserID,
		ProductID:  DeriveProductID(p.ExternalID),
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Image:      p.Image,
		Price:      p.Price,
	}
	if item.ProductID == 0 {
		notify.Error(w.notifier, "Could not add to wishlist", "This product cannot be saved.")
		return false
	}

	if err := w.repo.InsertWishlistItem(ctx, &item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			notify.Info(w.notifier, "Already in your wishlist", p.Name)
			return false
		}
		w.log.Error("failed to add wishlist item", zap.Int64("product_id", item.ProductID), zap.Error(err))
		notify.Error(w.notifier, "Could not add to wishlist", "Please try again.")
		return false
	}

	w.refresh(ctx, s.UserID)
	notify.Success(w.notifier, "Added to wishlist", p.Name)
	return true
}

// Remove deletes a saved product of the signed-in user.
func (w *Wishlist) Remove(ctx context.Context, productID int64) bool {
	s := w.sessions.Current()
	if !s.Authenticated() {
		notify.Error(w.notifier, "Please sign in", "Sign in to manage your wishlist.")
		return false
	}

	if err := w.repo.DeleteWishlistItem(ctx, s.UserID, productID); err != nil {
		w.log.Error("failed to remove wishlist item", zap.Int64("product_id", productID), zap.Error(err))
		notify.Error(w.notifier, "Could not remove from wishlist", "Please try again.")
		return false
	}

	w.refresh(ctx, s.UserID)
	notify.Info(w.notifier, "Removed from wishlist", "")
	return true
}

// Clear deletes every saved product of the signed-in user.
func (w *Wishlist) Clear(ctx context.Context) bool {
	s := w.sessions.Current()
	if !s.Authenticated() {
		notify.Error(w.notifier, "Please sign in", "Sign in to manage your wishlist.")
		return false
	}

	if err := w.repo.ClearWishlist(ctx, s.UserID); err != nil {
		w.log.Error("failed to clear wishlist", zap.Error(err))
		notify.Error(w.notifier, "Could not clear wishlist", "Please try again.")
		return false
	}

	w.refresh(ctx, s.UserID)
	notify.Info(w.notifier, "Wishlist cleared", "")
	return true
}

// Contains reports whether productID is in the local cache. The answer may be
// stale relative to the database.
func (w *Wishlist) Contains(productID int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, item := range w.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Items returns a copy of the cached items.
func (w *Wishlist) Items() []models.WishlistItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.WishlistItem, len(w.items))
	copy(out, w.items)
	return out
}

// State returns the cache state.
func (w *Wishlist) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Err returns the error of the last failed fetch, if the cache is in
// StateError.
func (w *Wishlist) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}
