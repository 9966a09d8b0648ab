package server

import (
	"errors"
	"net/http"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail maps sentinel errors to status codes. Anything unrecognized is a 500
// with a generic body; the detail stays in the server log.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNotFoundOrUnauthorized):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrOrderPlacementFailed):
		s.logger.Error("Order placement failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
	default:
		s.logger.Error("Unhandled server error",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// registeredUser returns the resolved local user or fails the request. An
// unregistered identity (valid token, no profile yet) is forbidden from
// everything except login and register.
func (s *Server) registeredUser(c *gin.Context) (*models.User, bool) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		s.fail(c, apperrors.ErrUnauthenticated)
		return nil, false
	}
	user, registered := ident.Registered()
	if !registered {
		c.JSON(http.StatusForbidden, gin.H{"error": "complete registration first"})
		return nil, false
	}
	return user, true
}
