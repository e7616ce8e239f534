package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key holding parsed Claims.
const ContextKey = "claims"

// Require enforces bearer JWT tokens signed with HS256 and, when roles are
// given, that the token's role is one of them. Auth failures abort before
// any handler runs.
func Require(signingKey, issuer string, roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[claims.Role]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}
		c.Set(ContextKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the Claims stored by Require.
func ClaimsFrom(c *gin.Context) Claims {
	v, _ := c.Get(ContextKey)
	claims, _ := v.(Claims)
	return claims
}
