package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) getCart(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	lines, err := s.carts.List(c.Request.Context(), user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": lines})
}

func (s *Server) addToCart(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := s.carts.AddOrUpdate(c.Request.Context(), user.ID, req.ProductID, req.Quantity); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
}

func (s *Server) updateCartQuantity(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.carts.UpdateQuantity(c.Request.Context(), user.ID, req.ProductID, req.Quantity); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
}

func (s *Server) removeFromCart(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	if err := s.carts.Remove(c.Request.Context(), user.ID, c.Param("product_id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}
