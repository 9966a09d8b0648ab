package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/models"
)

// Item is a line item as rendered in the confirmation message.
type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Confirmation carries everything needed to tell a customer their order was
// placed.
type Confirmation struct {
	OrderID       string                 `json:"order_id"`
	Recipient     string                 `json:"recipient"`
	Email         string                 `json:"email"`
	Shipping      models.ShippingDetails `json:"shipping_details"`
	PaymentMethod string                 `json:"payment_method"`
	Items         []Item                 `json:"items"`
	Total         float64                `json:"total"`
	Message       string                 `json:"message"`
}

// Format renders the human-readable confirmation body.
func (c Confirmation) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your order %s has been placed.\n\n", c.Recipient, c.OrderID)
	b.WriteString("Items:\n")
	for _, item := range c.Items {
		fmt.Fprintf(&b, "  - %s x%d @ %.2f\n", item.Name, item.Quantity, item.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\nPayment: %s\n", c.Total, c.PaymentMethod)
	fmt.Fprintf(&b, "Delivery to: %s, %s, %s, %s",
		c.Shipping.Street, c.Shipping.District, c.Shipping.Governorate, c.Shipping.Country)
	if c.Shipping.Landmark != "" {
		fmt.Fprintf(&b, " (near %s)", c.Shipping.Landmark)
	}
	return b.String()
}

// Transport delivers a formatted confirmation to the external message
// system.
type Transport interface {
	Send(ctx context.Context, body []byte) error
}
