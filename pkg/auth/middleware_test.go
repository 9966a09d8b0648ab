package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	tokens map[string]*Claims
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if claims, ok := v.tokens[token]; ok {
		return claims, nil
	}
	return nil, apperrors.ErrForbidden
}

func testRouter(t *testing.T, users UserStore) (*gin.Engine, *Middleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier := &stubVerifier{tokens: map[string]*Claims{
		"good-token":  {Subject: "fb-1", Email: "amina@example.com"},
		"ghost-token": {Subject: "fb-ghost", Email: "ghost@example.com"},
	}}
	m := NewMiddleware(verifier, users, nil, zap.NewNop(), false)

	r := gin.New()
	r.GET("/whoami", m.RequireAuth(), func(c *gin.Context) {
		ident, _ := IdentityFrom(c)
		if u, ok := ident.Registered(); ok {
			c.JSON(http.StatusOK, gin.H{"kind": "registered", "user_id": u.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": "unregistered", "subject": ident.Claims().Subject})
	})
	r.GET("/admin", m.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, m
}

func seedUsers() *fakeUserStore {
	return newFakeUserStore(
		&models.User{ID: "u-1", FirebaseUID: "fb-1"},
	)
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	r, _ := testRouter(t, seedUsers())

	w := do(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	r, _ := testRouter(t, seedUsers())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := do(r, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}

func TestRequireAuthResolvesLocalUser(t *testing.T) {
	r, _ := testRouter(t, seedUsers())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"registered"`)
	assert.Contains(t, w.Body.String(), `"u-1"`)
}

// unreachableUserStore fails every call the way a store does when the
// database is down.
type unreachableUserStore struct{}

func (unreachableUserStore) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return nil, errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")
}

func (unreachableUserStore) Create(ctx context.Context, user *models.User) error {
	return errors.New("store unavailable")
}

func (unreachableUserStore) Update(ctx context.Context, user *models.User) error {
	return errors.New("store unavailable")
}

func (unreachableUserStore) SoftDelete(ctx context.Context, id string) error {
	return errors.New("store unavailable")
}

func TestRequireAuthStoreOutageIsServerError(t *testing.T) {
	// A store outage must surface as a server failure, not demote a
	// registered customer to the unregistered state.
	r, _ := testRouter(t, unreachableUserStore{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := do(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "unregistered")
}

func TestRequireAuthPassesThroughUnregisteredIdentity(t *testing.T) {
	r, _ := testRouter(t, seedUsers())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer ghost-token")
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unregistered"`)
	assert.Contains(t, w.Body.String(), `"fb-ghost"`)
}

func TestCookiePreferredOverHeader(t *testing.T) {
	r, _ := testRouter(t, seedUsers())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bad-cookie"})
	req.Header.Set("Authorization", "Bearer good-token")
	w := do(r, req)

	// The cookie wins even when it is the invalid credential.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		token    string
		wantCode int
	}{
		{"missing token", nil, "", http.StatusUnauthorized},
		{"non-admin user", &models.User{ID: "u-1", FirebaseUID: "fb-1"}, "good-token", http.StatusForbidden},
		{"unregistered identity", nil, "ghost-token", http.StatusForbidden},
		{"admin user", &models.User{ID: "u-1", FirebaseUID: "fb-1", IsAdmin: true}, "good-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeUserStore()
			if tt.user != nil {
				store.byUID[tt.user.FirebaseUID] = tt.user
			}
			r, _ := testRouter(t, store)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := do(r, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestIssueAndClearSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(&stubVerifier{}, newFakeUserStore(), nil, zap.NewNop(), false)

	r := gin.New()
	r.POST("/issue", func(c *gin.Context) {
		m.IssueSession(c, "session-token")
		c.Status(http.StatusOK)
	})
	r.POST("/clear", func(c *gin.Context) {
		m.ClearSession(c)
		c.Status(http.StatusOK)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/issue", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, "session-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	w = do(r, httptest.NewRequest(http.MethodPost, "/clear", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
