// Package auth protects the HTTP API with a static bearer token.
//
// It supports two modes:
//   - "none": No authentication required (default)
//   - "token": Every /api request must send "Authorization: Bearer <token>"
//
// Only a bcrypt hash of the token is configured; the plaintext is shown once
// when it is generated:
//
//	bookbuddy token
//	API_TOKEN_HASH='$2a$12$...'
//
// Repeated failures from one client address are locked out for a while.
//
// # Usage
//
//	router.Use(auth.NewMiddleware(cfg.Auth, auth.NewRateLimiter(auth.DefaultRateLimitConfig())).Handler())
package auth
