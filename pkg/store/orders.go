package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"gorm.io/gorm"
)

// Orders is the gorm-backed order store.
type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// CreateOrder inserts the order header and every line item inside a single
// transaction. If any insert fails, the whole order rolls back and nothing
// is visible.
func (s *Orders) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("failed to insert order header: %w", err)
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Create(&order.Items[i]).Error; err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetOrder fetches the order header without items; used for ownership and
// status checks.
func (s *Orders) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (s *Orders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Orders) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list all orders: %w", err)
	}
	return orders, nil
}

// UpdateItemQuantity overwrites the quantity of the matching line item. The
// order's stored total is left untouched.
func (s *Orders) UpdateItemQuantity(ctx context.Context, orderID, productID string, quantity int) error {
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Update("quantity", quantity).Error
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}
	return nil
}

// DeleteItem removes the line item. Deleting the last item is allowed; an
// order may end up with zero items.
func (s *Orders) DeleteItem(ctx context.Context, orderID, productID string) error {
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Delete(&models.OrderItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return nil
}

// SetStatus overwrites the order status. No transition validation happens
// here; callers own whatever guard applies.
func (s *Orders) SetStatus(ctx context.Context, orderID, status string) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to set order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
