// README: Firebase bearer-token authentication middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/infra"
)

const (
	ctxKeyUID  = "auth_uid"
	ctxKeyRole = "auth_role"
)

// Auth rejects requests without a valid bearer token and records the caller's
// uid and role for downstream handlers.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := verifyRequest(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		c.Set(ctxKeyRole, token.Role())
		c.Next()
	}
}

// OptionalAuth resolves the caller when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid still fails
// with 401.
func OptionalAuth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := verifyRequest(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		c.Set(ctxKeyRole, token.Role())
		c.Next()
	}
}

func verifyRequest(c *gin.Context, verifier infra.TokenVerifier) (*infra.FirebaseToken, bool) {
	if verifier == nil {
		return nil, false
	}
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if raw == "" {
		return nil, false
	}
	token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
	if err != nil || token == nil {
		return nil, false
	}
	return token, true
}

// CallerUID returns the authenticated caller's uid, or "" for anonymous requests.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

// CallerRole returns the caller's role claim ("user" when the claim is absent),
// or "" for anonymous requests.
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}
