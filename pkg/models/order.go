package models

import (
	"time"
)

// ShippingDetails is the address snapshot denormalized onto an order at
// submission time. Later changes to the user's profile never touch it.
type ShippingDetails struct {
	Name        string `gorm:"type:varchar(200)" json:"name"`
	Email       string `gorm:"type:varchar(100)" json:"email"`
	Country     string `gorm:"type:varchar(56)" json:"country"`
	DialCode    string `gorm:"type:varchar(8)" json:"dial_code"`
	Mobile      string `gorm:"type:varchar(20)" json:"mobile"`
	Governorate string `gorm:"type:varchar(100)" json:"governorate"`
	District    string `gorm:"type:varchar(100)" json:"district"`
	Street      string `gorm:"type:varchar(255)" json:"street"`
	Building    string `gorm:"type:varchar(50)" json:"building"`
	Floor       string `gorm:"type:varchar(20)" json:"floor"`
	Apartment   string `gorm:"type:varchar(20)" json:"apartment"`
	Landmark    string `gorm:"type:varchar(255)" json:"landmark"`
}

func (s ShippingDetails) Empty() bool {
	return s == ShippingDetails{}
}

type Order struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	PaymentMethod string          `gorm:"type:varchar(40)" json:"payment_method"`
	TotalPrice    float64         `gorm:"type:decimal(10,2)" json:"total_price"`
	Status        string          `gorm:"type:varchar(20);default:'placed'" json:"status"`
	Shipping      ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_details"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen snapshot of a product at order time. Display fields
// are copied, not referenced, so historical orders survive catalog edits.
type OrderItem struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID     string  `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID   string  `gorm:"type:varchar(36);not null" json:"product_id"`
	Name        string  `gorm:"type:varchar(200)" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Image       string  `gorm:"type:varchar(255)" json:"image"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"type:decimal(10,2)" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
