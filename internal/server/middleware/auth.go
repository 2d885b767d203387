// Package middleware provides HTTP middleware for the calendard server.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/crmsuite/calendard/internal/apikeys"
	"github.com/crmsuite/calendard/internal/response"
)

// ContextKey is a custom type for context keys.
type ContextKey string

// ContextKeyAPIKey is the context key for the authenticated API key.
const ContextKeyAPIKey ContextKey = "api_key"

// APIKeyFromContext extracts the API key from the request context.
func APIKeyFromContext(ctx context.Context) *apikeys.AuthenticatedKey {
	if key, ok := ctx.Value(ContextKeyAPIKey).(*apikeys.AuthenticatedKey); ok {
		return key
	}
	return nil
}

// GetAuthenticatedKey extracts the authenticated API key from an HTTP request.
func GetAuthenticatedKey(r *http.Request) *apikeys.AuthenticatedKey {
	return APIKeyFromContext(r.Context())
}

// APIKeyAuth returns middleware that validates API key authentication.
func APIKeyAuth(repo *apikeys.Repository, limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteInvalidAPIKey(w)
				return
			}

			// Expect "Bearer <key>" format
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.WriteInvalidAPIKey(w)
				return
			}

			apiKey := strings.TrimSpace(parts[1])
			if apiKey == "" {
				response.WriteInvalidAPIKey(w)
				return
			}

			authKey, err := repo.Authenticate(r.Context(), apiKey)
			if err != nil {
				response.WriteInvalidAPIKey(w)
				return
			}

			if limiter != nil {
				if !limiter.Allow(authKey.ID, authKey.Tier) {
					response.WriteRateLimited(w)
					return
				}
				w.Header().Set("X-RateLimit-Remaining",
					strconv.Itoa(limiter.GetRemainingTokens(authKey.ID)))
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, authKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTier returns middleware that ensures the API key has one of the
// required tiers.
func RequireTier(requiredTiers ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authKey := APIKeyFromContext(r.Context())
			if authKey == nil {
				response.WriteInvalidAPIKey(w)
				return
			}

			allowed := false
			for _, tier := range requiredTiers {
				if authKey.Tier == tier {
					allowed = true
					break
				}
			}

			if !allowed {
				response.WriteInsufficientPermissions(w, authKey.Tier, r.URL.Path)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
