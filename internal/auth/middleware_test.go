package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookbuddy/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, cfg config.Auth, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(NewMiddleware(cfg, limiter).Handler())
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/api/books", func(c *gin.Context) { c.String(http.StatusOK, "books") })
	return router
}

func tokenConfig(t *testing.T, token string) config.Auth {
	t.Helper()
	hash, err := HashToken(token, bcrypt.MinCost)
	require.NoError(t, err)
	return config.Auth{Mode: config.AuthModeToken, TokenHash: hash}
}

func doRequest(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_NoAuthMode(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone}, nil)

	w := doRequest(router, "/api/books", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_TokenMode(t *testing.T) {
	router := setupRouter(t, tokenConfig(t, "s3cret"), nil)

	tests := []struct {
		name          string
		path          string
		authorization string
		expected      int
	}{
		{name: "valid token", path: "/api/books", authorization: "Bearer s3cret", expected: http.StatusOK},
		{name: "scheme is case-insensitive", path: "/api/books", authorization: "bearer s3cret", expected: http.StatusOK},
		{name: "wrong token", path: "/api/books", authorization: "Bearer nope", expected: http.StatusUnauthorized},
		{name: "missing header", path: "/api/books", expected: http.StatusUnauthorized},
		{name: "basic scheme", path: "/api/books", authorization: "Basic s3cret", expected: http.StatusUnauthorized},
		{name: "public path", path: "/health", expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.path, tt.authorization)
			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_LocksOutRepeatedFailures(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, LockoutDuration: time.Minute})
	router := setupRouter(t, tokenConfig(t, "s3cret"), limiter)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/api/books", "Bearer bad").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/api/books", "Bearer bad").Code)

	w := doRequest(router, "/api/books", "Bearer s3cret")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(RateLimitConfig{MaxAttempts: 3, WindowDuration: 10 * time.Minute, LockoutDuration: 5 * time.Minute})
	limiter.now = func() time.Time { return now }

	assert.False(t, limiter.RecordFailure("1.2.3.4"))
	assert.False(t, limiter.RecordFailure("1.2.3.4"))
	ok, _ := limiter.Allow("1.2.3.4")
	assert.True(t, ok)

	assert.True(t, limiter.RecordFailure("1.2.3.4"))
	ok, retryAfter := limiter.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, retryAfter)

	ok, _ = limiter.Allow("5.6.7.8")
	assert.True(t, ok, "other clients are unaffected")

	now = now.Add(6 * time.Minute)
	ok, _ = limiter.Allow("1.2.3.4")
	assert.True(t, ok, "lockout expires")

	limiter.RecordSuccess("1.2.3.4")
	assert.False(t, limiter.RecordFailure("1.2.3.4"), "success resets the count")
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(router, "/", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
