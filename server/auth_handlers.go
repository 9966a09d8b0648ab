package server

import (
	"net/http"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/auth"
	"github.com/gin-gonic/gin"
)

// login resolves the verified identity to a local profile, creating one on
// first contact, and issues the session cookie.
func (s *Server) login(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		s.fail(c, apperrors.ErrUnauthenticated)
		return
	}

	user, err := s.accounts.Login(c.Request.Context(), ident)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.authmw.IssueSession(c, auth.TokenFrom(c))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) register(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		s.fail(c, apperrors.ErrUnauthenticated)
		return
	}

	var reg auth.Registration
	if err := c.BindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.accounts.Register(c.Request.Context(), ident, reg)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.authmw.IssueSession(c, auth.TokenFrom(c))
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (s *Server) logout(c *gin.Context) {
	s.authmw.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) me(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) updateAccount(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	var upd auth.AccountUpdate
	if err := c.BindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.accounts.UpdateAccount(c.Request.Context(), user, upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (s *Server) deleteAccount(c *gin.Context) {
	user, ok := s.registeredUser(c)
	if !ok {
		return
	}

	if err := s.accounts.DeleteAccount(c.Request.Context(), user); err != nil {
		s.fail(c, err)
		return
	}

	s.authmw.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "account scheduled for deletion"})
}
