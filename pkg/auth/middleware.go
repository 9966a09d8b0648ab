package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the verified identity token between requests.
	SessionCookie = "authToken"

	sessionMaxAge = 5 * 24 * time.Hour

	ctxIdentityKey = "identity"
	ctxTokenKey    = "identityToken"
)

// ProfileCache is an optional read-through cache in front of the user store,
// keyed by external uid.
type ProfileCache interface {
	Profile(ctx context.Context, firebaseUID string) (*models.User, error)
	CacheProfile(ctx context.Context, user *models.User) error
}

// Middleware attaches a verified Identity to each request.
type Middleware struct {
	verifier      TokenVerifier
	users         UserStore
	cache         ProfileCache
	logger        *zap.Logger
	secureCookies bool
}

func NewMiddleware(verifier TokenVerifier, users UserStore, cache ProfileCache, logger *zap.Logger, secureCookies bool) *Middleware {
	return &Middleware{
		verifier:      verifier,
		users:         users,
		cache:         cache,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// RequireAuth verifies the request's token and attaches an Identity. A valid
// token with no local user passes through as an unregistered identity;
// downstream handlers decide whether to tolerate that.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAdmin verifies the token and additionally requires a resolved local
// user with the admin flag set.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := m.authenticate(c)
		if !ok {
			return
		}
		user, registered := ident.Registered()
		if !registered || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context) (Identity, bool) {
	token := tokenFromRequest(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return Identity{}, false
	}

	claims, err := m.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		// Absent and invalid are reported identically past this point.
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
		return Identity{}, false
	}

	ident, err := m.resolve(c.Request.Context(), claims)
	if err != nil {
		m.logger.Error("Failed to resolve identity",
			zap.String("firebase_uid", claims.Subject), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return Identity{}, false
	}
	c.Set(ctxIdentityKey, ident)
	c.Set(ctxTokenKey, token)
	return ident, true
}

func (m *Middleware) resolve(ctx context.Context, claims *Claims) (Identity, error) {
	if m.cache != nil {
		if u, err := m.cache.Profile(ctx, claims.Subject); err == nil && u != nil {
			return RegisteredIdentity(u), nil
		}
	}

	user, err := m.users.GetByFirebaseUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Documented partial-identity state: verified token, no
			// local user. Only a confirmed miss lands here; a store
			// outage must not demote registered customers.
			return UnregisteredIdentity(*claims), nil
		}
		return Identity{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	if m.cache != nil {
		if err := m.cache.CacheProfile(ctx, user); err != nil {
			m.logger.Warn("Failed to cache profile",
				zap.String("firebase_uid", user.FirebaseUID), zap.Error(err))
		}
	}
	return RegisteredIdentity(user), nil
}

// IssueSession sets the session cookie on the response. SameSite=None needs
// Secure, so production mode switches both together.
func (m *Middleware) IssueSession(c *gin.Context, token string) {
	if m.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(SessionCookie, token, int(sessionMaxAge.Seconds()), "/", "", m.secureCookies, true)
}

func (m *Middleware) ClearSession(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", m.secureCookies, true)
}

// IdentityFrom returns the Identity attached by RequireAuth.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

// TokenFrom returns the raw verified token for the current request.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ctxTokenKey)
}

// tokenFromRequest prefers the session cookie and falls back to the
// Authorization header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
