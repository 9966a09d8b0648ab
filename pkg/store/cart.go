package store

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cart persists per-user cart entries.
type Cart struct {
	db *gorm.DB
}

func NewCart(db *gorm.DB) *Cart {
	return &Cart{db: db}
}

// AddOrUpdate upserts the (user, product) entry. An existing quantity is
// replaced, not incremented.
func (s *Cart) AddOrUpdate(ctx context.Context, userID, productID string, quantity int) error {
	entry := models.CartEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart entry: %w", err)
	}
	return nil
}

// Remove deletes the entry. Removing an absent entry is a no-op, not an
// error.
func (s *Cart) Remove(ctx context.Context, userID, productID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart entry: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity directly. No lower bound is enforced
// here; the client clamps to >= 1.
func (s *Cart) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	err := s.db.WithContext(ctx).Model(&models.CartEntry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity).Error
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	return nil
}

// List joins entries with live catalog data, so the cart always shows the
// current price and name rather than a frozen snapshot.
func (s *Cart) List(ctx context.Context, userID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.WithContext(ctx).
		Table("cart_entries").
		Select("cart_entries.product_id, products.name, products.price, products.image, cart_entries.quantity").
		Joins("JOIN products ON products.id = cart_entries.product_id AND products.deleted_at IS NULL").
		Where("cart_entries.user_id = ?", userID).
		Order("cart_entries.created_at").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return lines, nil
}

// Clear empties the user's cart after a successful order placement.
func (s *Cart) Clear(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
