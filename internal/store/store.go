// Package store is the storefront's remote data client: record CRUD over the
// named collections kept in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/maison/internal/models"
)

var (
	// ErrAlreadyExists reports a rejected insert caused by a uniqueness rule.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound reports that no record matched the filters.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientPoints reports a redemption larger than the stored
	// balance.
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// Store wraps a gorm connection.
type Store struct {
	db *gorm.DB
}

// New returns a Store using db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for handlers doing plain CRUD.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}

// Users

// CreateUser inserts a user together with an empty bronze loyalty profile.
func (s *Store) CreateUser(ctx context.Context, user *models.User, fullName, phone string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := models.Profile{
			UserID:      user.ID,
			Email:       user.Email,
			FullName:    fullName,
			Phone:       phone,
			LoyaltyTier: "bronze",
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Profile = &profile
		return nil
	}))
}

// FindUserByEmail looks a user up by normalised email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUser loads a user by id.
func (s *Store) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetPasswordHash replaces a user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Wishlist

// ListWishlist returns a user's saved products, newest first.
func (s *Store) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error
	return items, translate(err)
}

// InsertWishlistItem saves a product. A second insert for the same
// (user, product) pair returns ErrAlreadyExists.
func (s *Store) InsertWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

// DeleteWishlistItem removes one saved product of a user.
func (s *Store) DeleteWishlistItem(ctx context.Context, userID uuid.UUID, productID int64) error {
	return translate(s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error)
}

// ClearWishlist removes every saved product of a user.
func (s *Store) ClearWishlist(ctx context.Context, userID uuid.UUID) error {
	return translate(s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.WishlistItem{}).Error)
}

// Loyalty

// GetProfile loads the loyalty profile of a user.
func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// ListLoyaltyTransactions returns up to limit ledger entries, newest first.
func (s *Store) ListLoyaltyTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error) {
	var items []models.LoyaltyTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at desc").
		Limit(limit).
		Find(&items).Error
	return items, translate(err)
}

// ProfileFields is the customer-editable part of a profile.
type ProfileFields struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// UpdateProfile writes the given fields and stamps updated_at.
func (s *Store) UpdateProfile(ctx context.Context, userID uuid.UUID, fields ProfileFields) error {
	updates := map[string]interface{}{}
	if fields.FullName != nil {
		updates["full_name"] = *fields.FullName
	}
	if fields.Phone != nil {
		updates["phone"] = *fields.Phone
	}
	if fields.AvatarURL != nil {
		updates["avatar_url"] = *fields.AvatarURL
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TierFunc maps a points balance to a tier label.
type TierFunc func(points int) string

// RecordTransaction appends txn to the ledger and moves the profile balance
// by txn.Points within one database transaction. A redemption the balance
// cannot cover fails with ErrInsufficientPoints; other debits are clamped so
// the balance never drops below zero. tierFor recomputes the tier from the
// new balance.
func (s *Store) RecordTransaction(ctx context.Context, txn *models.LoyaltyTransaction, tierFor TierFunc) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recordTransaction(tx, txn, tierFor, &profile)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// applyPoints returns the delta actually recorded and the resulting balance
// for a ledger entry of the given type against balance.
func applyPoints(balance int, txnType string, delta int) (recorded, next int, err error) {
	next = balance + delta
	if next >= 0 {
		return delta, next, nil
	}
	if txnType == models.TransactionRedeemed {
		return 0, balance, ErrInsufficientPoints
	}
	return -balance, 0, nil
}

func recordTransaction(tx *gorm.DB, txn *models.LoyaltyTransaction, tierFor TierFunc, profile *models.Profile) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(profile, "user_id = ?", txn.UserID).Error; err != nil {
		return err
	}

	points, balance, err := applyPoints(profile.LoyaltyPoints, txn.Type, txn.Points)
	if err != nil {
		return err
	}
	txn.Points = points
	if txn.OccurredAt.IsZero() {
		txn.OccurredAt = time.Now().UTC()
	}
	if err := tx.Create(txn).Error; err != nil {
		return err
	}

	profile.LoyaltyPoints = balance
	profile.LoyaltyTier = tierFor(balance)
	return tx.Model(profile).Updates(map[string]interface{}{
		"loyalty_points": profile.LoyaltyPoints,
		"loyalty_tier":   profile.LoyaltyTier,
		"updated_at":     time.Now().UTC(),
	}).Error
}

// Orders

// PlaceOrder persists order and its items and applies the loyalty ledger
// entries (redemption first, then earnings) in a single transaction. Entries
// get the order id attached.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, ledger []models.LoyaltyTransaction, tierFor TierFunc) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range ledger {
			entry := ledger[i]
			entry.OrderID = &order.ID
			var profile models.Profile
			if err := recordTransaction(tx, &entry, tierFor, &profile); err != nil {
				return err
			}
		}
		return nil
	}))
}

// ListOrders returns a user's orders with items, newest first.
func (s *Store) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, translate(err)
}

// GetOrder loads one order of a user.
func (s *Store) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// Newsletter

// Subscribe adds an email to the newsletter list. An address that is already
// subscribed returns ErrAlreadyExists; a previously unsubscribed one is
// reactivated.
func (s *Store) Subscribe(ctx context.Context, email, source string) error {
	email = NormalizeEmail(email)
	db := s.db.WithContext(ctx)

	var existing models.NewsletterSubscriber
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil && existing.UnsubscribedAt == nil:
		return ErrAlreadyExists
	case err == nil:
		return translate(db.Model(&existing).Update("unsubscribed_at", nil).Error)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return translate(err)
	}

	return translate(db.Create(&models.NewsletterSubscriber{Email: email, Source: source}).Error)
}

// Unsubscribe marks an email as unsubscribed.
func (s *Store) Unsubscribe(ctx context.Context, email string) error {
	res := s.db.WithContext(ctx).Model(&models.NewsletterSubscriber{}).
		Where("email = ? AND unsubscribed_at IS NULL", NormalizeEmail(email)).
		Update("unsubscribed_at", time.Now().UTC())
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Products

// UpsertProduct inserts or refreshes a product, matching on external id, and
// replaces its variants. Brand and category assignments made locally survive
// a refresh that does not carry them.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		err := tx.Where("external_id = ?", product.ExternalID).First(&existing).Error
		switch {
		case err == nil:
			product.ID = existing.ID
			product.CreatedAt = existing.CreatedAt
			if product.BrandID == nil {
				product.BrandID = existing.BrandID
			}
			if product.CategoryID == nil {
				product.CategoryID = existing.CategoryID
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		variants := product.Variants
		product.Variants = nil
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].Detach()
			variants[i].ProductID = product.ID
		}
		if len(variants) > 0 {
			if err := tx.Create(&variants).Error; err != nil {
				return err
			}
		}
		product.Variants = variants
		return nil
	}))
}

// FindProductByExternalID loads a product by its external identifier.
func (s *Store) FindProductByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "external_id = ?", externalID).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// Password reset

// CreateResetToken expires a user's pending reset tokens and stores a new one.
func (s *Store) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used_at IS NULL AND expires_at > ?", token.UserID, time.Now().UTC()).
			Update("expires_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	}))
}

// FindResetToken loads a reset token by its opaque value.
func (s *Store) FindResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// SaveResetToken persists changes to a reset token.
func (s *Store) SaveResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return translate(s.db.WithContext(ctx).Save(token).Error)
}
