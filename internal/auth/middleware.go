package auth

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/config"
)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	config      config.Auth
	limiter     *RateLimiter
	publicPaths map[string]bool
}

// NewMiddleware creates a new authentication middleware. limiter may be nil.
func NewMiddleware(cfg config.Auth, limiter *RateLimiter) *Middleware {
	return &Middleware{
		config:  cfg,
		limiter: limiter,
		publicPaths: map[string]bool{
			"/health": true,
			"/ping":   true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode != config.AuthModeToken {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if m.limiter != nil {
			if ok, retryAfter := m.limiter.Allow(ip); !ok {
				c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retryAfter.Seconds()))))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error": "too many failed attempts",
				})
				return
			}
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || CheckToken(token, m.config.TokenHash) != nil {
			if m.limiter != nil && ok {
				m.limiter.RecordFailure(ip)
			}
			c.Header("WWW-Authenticate", `Bearer realm="bookbuddy"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if m.limiter != nil {
			m.limiter.RecordSuccess(ip)
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
