package models

import (
	"time"
)

// CartEntry maps a (user, product) pair to a quantity. The composite unique
// index guarantees at most one row per pair; re-adding upserts instead of
// duplicating.
type CartEntry struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartEntry) TableName() string {
	return "cart_entries"
}

// CartLine is a cart entry joined with live catalog data for display.
// Unlike an order item it always reflects the current price and name.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}
