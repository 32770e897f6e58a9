package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/pkg/jwt"
	"github.com/qs3c/revastra_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func newToken(t *testing.T, userID int64, secret string, hours int) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, secret, hours)
	require.NoError(t, err)
	return token
}

func serve(router http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth_Success(t *testing.T) {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, int64(123), userID)
		response.Success(c, userID)
	})

	w := serve(router, "Bearer "+newToken(t, 123, testJWTSecret, 24))
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)
}

func TestAuth_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"missing header", func(*testing.T) string { return "" }},
		{"no bearer prefix", func(*testing.T) string { return "some-token-without-bearer" }},
		{"empty bearer", func(*testing.T) string { return "Bearer " }},
		{"invalid token", func(*testing.T) string { return "Bearer invalid-token" }},
		{"wrong secret", func(t *testing.T) string { return "Bearer " + newToken(t, 123, "different-secret", 24) }},
		{"expired", func(t *testing.T) string { return "Bearer " + newToken(t, 123, testJWTSecret, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			router.Use(Auth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				reached = true
				response.Success(c, nil)
			})

			w := serve(router, tt.header(t))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
			assert.False(t, reached)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantUser int64
	}{
		{"valid token", "Bearer " + func() string { tok, _ := jwt.GenerateToken(456, testJWTSecret, 24); return tok }(), 456},
		{"no token", "", 0},
		{"invalid token", "Bearer invalid-token", 0},
		{"invalid format", "no-bearer-prefix", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(OptionalAuth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				userID, _ := GetUserID(c)
				response.Success(c, userID)
			})

			w := serve(router, tt.header)
			resp := parseResponse(t, w)
			assert.Equal(t, response.CodeSuccess, resp.Code)
			assert.Equal(t, float64(tt.wantUser), resp.Data)
		})
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, "not-an-int64")
	_, ok = GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, int64(789))
	id, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(789), id)
}
