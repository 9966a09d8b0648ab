package server

import (
	"net/http"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
)

type orderItemRequest struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type createOrderRequest struct {
	FirebaseUID     string                 `json:"firebase_uid"`
	ShippingDetails models.ShippingDetails `json:"shipping_details"`
	PaymentMethod   string                 `json:"payment_method"`
	Products        []orderItemRequest     `json:"products"`
	TotalPrice      float64                `json:"total_price"`
}

func (s *Server) createOrder(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]models.OrderItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = models.OrderItem{
			ProductID:   p.ProductID,
			Name:        p.Name,
			Description: p.Description,
			Image:       p.Image,
			Quantity:    p.Quantity,
			Price:       p.Price,
		}
	}

	orderID, err := s.orders.Create(
		c.Request.Context(),
		user,
		req.ShippingDetails,
		req.PaymentMethod,
		items,
		req.TotalPrice,
		c.GetHeader("Idempotency-Key"),
	)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"orderId": orderID,
	})
}

func (s *Server) listOrders(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	orders, err := s.orders.ListForUser(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type updateItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) updateOrderItem(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.orders.UpdateItem(c.Request.Context(), c.Param("orderId"), user, req.ProductID, req.Quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item updated"})
}

func (s *Server) deleteOrderItem(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	err := s.orders.DeleteItem(c.Request.Context(), c.Param("orderId"), user, c.Param("productId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

func (s *Server) cancelOrder(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	if err := s.orders.Cancel(c.Request.Context(), c.Param("orderId"), user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

func (s *Server) orderAgain(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	if err := s.orders.OrderAgain(c.Request.Context(), c.Param("orderId"), user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order placed again"})
}

// --- admin ---

func (s *Server) listAllOrders(c *gin.Context) {
	orders, err := s.orders.ListAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// defaultEventLimit caps the audit entries returned per order.
const defaultEventLimit = 50

func (s *Server) listOrderEvents(c *gin.Context) {
	events, err := s.orders.Events(c.Request.Context(), c.Param("orderId"), defaultEventLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if events == nil {
		events = []*repository.OrderEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	admin, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.orders.SetStatus(c.Request.Context(), c.Param("orderId"), req.Status, admin)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
