package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const idempotencyWindow = 24 * time.Hour

// Store is the persistence surface the engine needs. The gorm implementation
// lives in pkg/store.
type Store interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateItemQuantity(ctx context.Context, orderID, productID string, quantity int) error
	DeleteItem(ctx context.Context, orderID, productID string) error
	SetStatus(ctx context.Context, orderID, status string) error
}

// Cache covers the engine's Redis needs: the idempotency-key window and
// order cache invalidation.
type Cache interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	InvalidateOrder(ctx context.Context, orderID string) error
}

// Notifier hands a confirmation to the background dispatcher.
type Notifier interface {
	Enqueue(c notify.Confirmation) bool
}

// Auditor records and replays order lifecycle events.
type Auditor interface {
	RecordOrderEvent(ctx context.Context, event *repository.OrderEvent) error
	ListOrderEvents(ctx context.Context, orderID string, limit int64) ([]*repository.OrderEvent, error)
}

// CartClearer empties the user's cart once an order committed.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Engine owns the order lifecycle: the creation transaction, post-creation
// mutations under ownership checks, and the admin status overwrite. Cache,
// notifier, auditor and carts are optional; a nil dependency just skips that
// side effect.
type Engine struct {
	store    Store
	cache    Cache
	notifier Notifier
	audit    Auditor
	carts    CartClearer
	logger   *zap.Logger
}

func NewEngine(store Store, cache Cache, notifier Notifier, audit Auditor, carts CartClearer, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		cache:    cache,
		notifier: notifier,
		audit:    audit,
		carts:    carts,
		logger:   logger,
	}
}

// Create validates the submission, persists the order header and all line
// items in one transaction, and returns the new order id. Line items arrive
// already resolved by the caller; the engine does not re-check them against
// live catalog prices.
//
// Post-commit side effects (confirmation, cart clear, audit) are
// best-effort: they are logged on failure and never undo the committed
// order.
func (e *Engine) Create(ctx context.Context, user *models.User, shipping models.ShippingDetails, paymentMethod string, items []models.OrderItem, total float64, idemKey string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("%w: order must contain at least one item", apperrors.ErrValidation)
	}
	if shipping.Empty() {
		return "", fmt.Errorf("%w: shipping details are required", apperrors.ErrValidation)
	}

	var reservedKey string
	if idemKey != "" && e.cache != nil {
		key := fmt.Sprintf("idem:order:%s:%s", user.ID, idemKey)
		reserved, err := e.cache.Reserve(ctx, key, idempotencyWindow)
		if err != nil {
			// Degrade open: a cache outage must not block checkout.
			e.logger.Warn("Idempotency reservation failed",
				zap.String("user_id", user.ID), zap.Error(err))
		} else if !reserved {
			return "", apperrors.ErrDuplicateRequest
		} else {
			reservedKey = key
		}
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PaymentMethod: paymentMethod,
		TotalPrice:    total,
		Status:        StatusPlaced,
		Shipping:      shipping,
		Items:         items,
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].OrderID = order.ID
	}

	if err := e.store.CreateOrder(ctx, order); err != nil {
		// The key must not outlive a rolled-back transaction, or a
		// legitimate retry would be rejected for an order that never
		// existed.
		e.releaseReservation(ctx, reservedKey)
		e.logger.Error("Order transaction failed",
			zap.String("user_id", user.ID),
			zap.Int("items", len(items)),
			zap.Error(err))
		return "", apperrors.ErrOrderPlacementFailed
	}

	e.afterCommit(order, user)

	return order.ID, nil
}

func (e *Engine) afterCommit(order *models.Order, user *models.User) {
	if e.notifier != nil {
		items := make([]notify.Item, len(order.Items))
		for i, it := range order.Items {
			items[i] = notify.Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				Price:     it.Price,
			}
		}
		e.notifier.Enqueue(notify.Confirmation{
			OrderID:       order.ID,
			Recipient:     order.Shipping.Name,
			Email:         order.Shipping.Email,
			Shipping:      order.Shipping,
			PaymentMethod: order.PaymentMethod,
			Items:         items,
			Total:         order.TotalPrice,
		})
	}

	if e.carts != nil {
		if err := e.carts.Clear(context.Background(), user.ID); err != nil {
			e.logger.Warn("Failed to clear cart after order",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	e.recordEvent("order_placed", order.ID, user.ID, bson.M{
		"total_price": order.TotalPrice,
		"items":       len(order.Items),
	})
}

// UpdateItem overwrites the quantity of one line item. The stored order
// total is not recomputed.
func (e *Engine) UpdateItem(ctx context.Context, orderID string, requester *models.User, productID string, quantity int) error {
	if _, err := e.ownedOrder(ctx, orderID, requester); err != nil {
		return err
	}
	return e.store.UpdateItemQuantity(ctx, orderID, productID, quantity)
}

// DeleteItem removes one line item. Removing the last item is permitted.
func (e *Engine) DeleteItem(ctx context.Context, orderID string, requester *models.User, productID string) error {
	if _, err := e.ownedOrder(ctx, orderID, requester); err != nil {
		return err
	}
	return e.store.DeleteItem(ctx, orderID, productID)
}

// Cancel sets the order to cancelled regardless of its current status.
func (e *Engine) Cancel(ctx context.Context, orderID string, requester *models.User) error {
	if _, err := e.ownedOrder(ctx, orderID, requester); err != nil {
		return err
	}
	if err := e.store.SetStatus(ctx, orderID, StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	e.invalidate(ctx, orderID)
	e.recordEvent("order_cancelled", orderID, requester.ID, nil)
	return nil
}

// OrderAgain flips a cancelled order back to placed, mutating the existing
// row in place. An order that is already placed is rejected.
func (e *Engine) OrderAgain(ctx context.Context, orderID string, requester *models.User) error {
	order, err := e.ownedOrder(ctx, orderID, requester)
	if err != nil {
		return err
	}
	if order.Status == StatusPlaced {
		return apperrors.ErrInvalidState
	}
	if err := e.store.SetStatus(ctx, orderID, StatusPlaced); err != nil {
		return fmt.Errorf("failed to re-place order: %w", err)
	}
	e.invalidate(ctx, orderID)
	e.recordEvent("order_replaced", orderID, requester.ID, nil)
	return nil
}

// ListForUser returns the requester's orders with items, newest first.
func (e *Engine) ListForUser(ctx context.Context, user *models.User) ([]models.Order, error) {
	return e.store.ListByUser(ctx, user.ID)
}

// ListAll returns every order with items, newest first. Admin only; the
// role check lives in the HTTP layer.
func (e *Engine) ListAll(ctx context.Context) ([]models.Order, error) {
	return e.store.ListAll(ctx)
}

// Events returns the order's audit trail, newest first. Admin only; the
// role check lives in the HTTP layer.
func (e *Engine) Events(ctx context.Context, orderID string, limit int64) ([]*repository.OrderEvent, error) {
	if e.audit == nil {
		return nil, nil
	}
	return e.audit.ListOrderEvents(ctx, orderID, limit)
}

// SetStatus is the admin overwrite: any status string is accepted and
// persisted without transition validation.
func (e *Engine) SetStatus(ctx context.Context, orderID, status string, actor *models.User) error {
	if err := e.store.SetStatus(ctx, orderID, status); err != nil {
		return err
	}
	e.invalidate(ctx, orderID)
	e.recordEvent("status_changed", orderID, actor.ID, bson.M{"status": status})
	return nil
}

// ownedOrder fetches the order and checks ownership. A missing order and a
// foreign order fail identically so order ids cannot be enumerated.
func (e *Engine) ownedOrder(ctx context.Context, orderID string, requester *models.User) (*models.Order, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != requester.ID {
		return nil, apperrors.ErrNotFoundOrUnauthorized
	}
	return order, nil
}

func (e *Engine) releaseReservation(ctx context.Context, key string) {
	if key == "" || e.cache == nil {
		return
	}
	if err := e.cache.Release(ctx, key); err != nil {
		e.logger.Warn("Failed to release idempotency key",
			zap.String("key", key), zap.Error(err))
	}
}

func (e *Engine) invalidate(ctx context.Context, orderID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateOrder(ctx, orderID); err != nil {
		e.logger.Warn("Failed to invalidate order cache",
			zap.String("order_id", orderID), zap.Error(err))
	}
}

func (e *Engine) recordEvent(action, orderID, actor string, data bson.M) {
	if e.audit == nil {
		return
	}
	go func() {
		err := e.audit.RecordOrderEvent(context.Background(), &repository.OrderEvent{
			Action:  action,
			OrderID: orderID,
			Actor:   actor,
			Data:    data,
		})
		if err != nil {
			e.logger.Warn("Failed to record order event",
				zap.String("action", action),
				zap.String("order_id", orderID),
				zap.Error(err))
		}
	}()
}
