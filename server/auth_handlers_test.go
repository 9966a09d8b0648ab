package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/example/storefront/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodPost, "/api/auth/login", buyerToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.Equal(t, buyerToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginCreatesProfileOnFirstContact(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodPost, "/api/auth/login", ghostToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	u, err := env.users.GetByFirebaseUID(context.Background(), "fb-ghost")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
}

func TestRegisterCompletesProfile(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"first_name": "Nour",
		"last_name": "Hassan",
		"email": "nour@example.com",
		"address": {"country": "Egypt", "mobile": "0100000000", "governorate": "Cairo"}
	}`
	w := env.request(http.MethodPost, "/api/auth/register", ghostToken, body)
	require.Equal(t, http.StatusCreated, w.Code)

	u, err := env.users.GetByFirebaseUID(context.Background(), "fb-ghost")
	require.NoError(t, err)
	assert.Equal(t, "Nour", u.FirstName)
	assert.Equal(t, "Egypt", u.Address.Country)
}

func TestRegisterRejectsIncompleteAddress(t *testing.T) {
	env := newTestEnv(t)

	// No mobile number.
	body := `{"first_name": "Nour", "last_name": "Hassan", "address": {"country": "Egypt"}}`
	w := env.request(http.MethodPost, "/api/auth/register", ghostToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodGet, "/api/auth/me", buyerToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User struct {
			ID        string `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, buyerUserID, resp.User.ID)
	assert.Equal(t, "Amina", resp.User.FirstName)
}

func TestUpdateAccountAppliesPartialChanges(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodPut, "/api/auth/accountupdate", buyerToken, `{"last_name": "Saleh"}`)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := env.users.GetByFirebaseUID(context.Background(), "fb-buyer")
	require.NoError(t, err)
	assert.Equal(t, "Amina", u.FirstName, "unset fields stay untouched")
	assert.Equal(t, "Saleh", u.LastName)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodDelete, "/api/auth/account", buyerToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.users.GetByFirebaseUID(context.Background(), "fb-buyer")
	assert.Error(t, err)
}
