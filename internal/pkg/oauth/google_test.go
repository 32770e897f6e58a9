package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewGoogleOAuth(t *testing.T) {
	g := NewGoogleOAuth("client-id", "client-secret", "http://localhost/callback")

	require.NotNil(t, g.config)
	assert.Equal(t, "client-id", g.config.ClientID)
	assert.Equal(t, "http://localhost/callback", g.config.RedirectURL)
	assert.Contains(t, g.config.Scopes, "email")
}

func TestGoogleOAuth_GetAuthURL(t *testing.T) {
	g := NewGoogleOAuth("test-client-id", "secret", "http://example.com/callback")

	url := g.GetAuthURL("test-state")

	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.NotEqual(t, url, g.GetAuthURL("other-state"))
}

func TestGoogleOAuth_GetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"1180","email":"priya@example.com","email_verified":true,"name":"Priya","picture":"https://lh3.example/p.jpg"}`))
	}))
	defer server.Close()

	g := NewGoogleOAuth("id", "secret", "http://localhost/cb")
	g.userInfoURL = server.URL

	user, err := g.GetUser(context.Background(), &oauth2.Token{AccessToken: "access-123", TokenType: "Bearer"})
	require.NoError(t, err)
	assert.Equal(t, "1180", user.Sub)
	assert.Equal(t, "priya@example.com", user.Email)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "Priya", user.Name)
}

func TestGoogleOAuth_GetUser_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer server.Close()

	g := NewGoogleOAuth("id", "secret", "http://localhost/cb")
	g.userInfoURL = server.URL

	_, err := g.GetUser(context.Background(), &oauth2.Token{AccessToken: "bad", TokenType: "Bearer"})
	assert.Error(t, err)
}

func TestGoogleOAuth_GetUser_MissingSubject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"x@example.com"}`))
	}))
	defer server.Close()

	g := NewGoogleOAuth("id", "secret", "http://localhost/cb")
	g.userInfoURL = server.URL

	_, err := g.GetUser(context.Background(), &oauth2.Token{AccessToken: "t", TokenType: "Bearer"})
	assert.Error(t, err)
}
