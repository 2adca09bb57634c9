package auth

import (
	"log"
	"net/http"
	"strings"

	"go-insure/internal/config"

	"github.com/gin-gonic/gin"
)

// OperatorMiddleware requires a valid, unrevoked bearer token with the
// operator role. revoked may be nil when no revocation store is configured.
func OperatorMiddleware(cfg *config.Config, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Printf("[Auth] revocation check failed: %v", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Unable to verify token"}})
				return
			}
			if isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Token revoked"}})
				return
			}
		}

		c.Set("operator", claims.Operator)
		c.Set("role", claims.Role)

		if claims.Role != RoleOperator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Operator only"}})
			return
		}
		c.Next()
	}
}
