// Package loyalty keeps the signed-in user's loyalty profile and recent
// points history in sync with the database.
package loyalty

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/notify"
	"github.com/example/maison/internal/session"
	"github.com/example/maison/internal/store"
)

// HistoryLimit is how many recent transactions are kept locally.
const HistoryLimit = 50

// Repository is the remote data backing the loyalty view.
type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListLoyaltyTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields store.ProfileFields) error
}

// ProfileUpdate holds the profile fields a customer may change. Nil fields are
// left untouched.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
}

func (u ProfileUpdate) empty() bool {
	return u.FullName == nil && u.Phone == nil
}

// Loyalty is the local view of one user's loyalty data.
type Loyalty struct {
	sessions *session.Manager
	repo     Repository
	notifier notify.Notifier
	log      *zap.Logger

	mu           sync.RWMutex
	loading      bool
	profile      *models.Profile
	transactions []models.LoyaltyTransaction
	generation   uint64

	unsubscribe func()
}

// New builds a Loyalty view bound to sessions.
func New(sessions *session.Manager, repo Repository, n notify.Notifier, log *zap.Logger) *Loyalty {
	if n == nil {
		n = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loyalty{
		sessions: sessions,
		repo:     repo,
		notifier: n,
		log:      log.Named("loyalty"),
	}
	l.unsubscribe = sessions.Subscribe(l.onSessionChange)
	return l
}

// Close detaches the view from session changes.
func (l *Loyalty) Close() {
	l.unsubscribe()
}

func (l *Loyalty) onSessionChange(ctx context.Context, s session.Session) {
	if !s.Authenticated() {
		l.reset()
		return
	}
	l.refresh(ctx, s.UserID)
}

// Load fetches profile and history for the current session.
func (l *Loyalty) Load(ctx context.Context) {
	s := l.sessions.Current()
	if !s.Authenticated() {
		l.reset()
		return
	}
	l.refresh(ctx, s.UserID)
}

func (l *Loyalty) reset() {
	l.mu.Lock()
	l.generation++
	l.loading = false
	l.profile = nil
	l.transactions = nil
	l.mu.Unlock()
}

// refresh fetches the profile and the history concurrently. It returns false
// when either fetch failed; a superseded fetch counts as success.
func (l *Loyalty) refresh(ctx context.Context, userID uuid.UUID) bool {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.loading = true
	l.mu.Unlock()

	var (
		profile      *models.Profile
		transactions []models.LoyaltyTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = l.repo.GetProfile(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = l.repo.ListLoyaltyTransactions(gctx, userID, HistoryLimit)
		return err
	})
	err := g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return true
	}
	l.loading = false
	if err != nil {
		l.log.Error("failed to fetch loyalty data", zap.Stringer("user_id", userID), zap.Error(err))
		notify.Error(l.notifier, "Could not load rewards", "Please try again later.")
		return false
	}
	l.profile = profile
	l.transactions = transactions
	return true
}

// Refresh re-fetches for the current session, e.g. after points moved.
func (l *Loyalty) Refresh(ctx context.Context) bool {
	s := l.sessions.Current()
	if !s.Authenticated() {
		return false
	}
	return l.refresh(ctx, s.UserID)
}

// Profile returns a copy of the cached profile, or nil.
func (l *Loyalty) Profile() *models.Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.profile == nil {
		return nil
	}
	p := *l.profile
	return &p
}

// Transactions returns the cached history, newest first.
func (l *Loyalty) Transactions() []models.LoyaltyTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.LoyaltyTransaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Loading reports whether a fetch is outstanding.
func (l *Loyalty) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// TierProgress reports progress through the cached profile's tier. Without a
// profile it reports a zero balance at the start of bronze.
func (l *Loyalty) TierProgress() Progress {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.profile == nil {
		return CalculateProgress(0, TierBronze)
	}
	return CalculateProgress(l.profile.LoyaltyPoints, ParseTier(l.profile.LoyaltyTier))
}

// CanRedeem reports whether the cached balance covers points.
func (l *Loyalty) CanRedeem(points int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile != nil && l.profile.LoyaltyPoints >= points
}

// UpdateProfile writes the editable fields and re-fetches. On failure the
// cached profile is left as it was.
func (l *Loyalty) UpdateProfile(ctx context.Context, update ProfileUpdate) bool {
	s := l.sessions.Current()
	if !s.Authenticated() {
		notify.Error(l.notifier, "Please sign in", "Sign in to update your profile.")
		return false
	}
	if update.empty() {
		notify.Info(l.notifier, "Nothing to update", "")
		return false
	}

	fields := store.ProfileFields{}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		fields.FullName = &name
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		fields.Phone = &phone
	}

	if err := l.repo.UpdateProfile(ctx, s.UserID, fields); err != nil {
		l.log.Error("failed to update profile", zap.Stringer("user_id", s.UserID), zap.Error(err))
		notify.Error(l.notifier, "Could not update profile", "Please try again.")
		return false
	}

	l.refresh(ctx, s.UserID)
	notify.Success(l.notifier, "Profile updated", "")
	return true
}
