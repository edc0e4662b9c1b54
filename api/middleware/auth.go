package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realty/services"
)

const UsernameKey = "username"

// AuthMiddleware resolves the Bearer token to a username and stores it in
// the request context. Every listing operation runs behind it.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: provide Authorization Bearer token"})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		username, err := auth.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token lookup failed"})
			c.Abort()
			return
		}
		if username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(UsernameKey, username)
		c.Next()
	}
}
