package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Txauuuul/nutrition-bot/services"
)

// IdentityMiddleware resolves the caller from the X-User-ID header,
// creating the account with default goals on first contact. The header
// carries the chat platform's numeric user id and is trusted as-is;
// the gateway in front of this service is responsible for
// authenticating it.
func IdentityMiddleware(intake *services.IntakeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header required"})
			return
		}
		externalID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-User-ID must be numeric"})
			return
		}

		name := c.GetHeader("X-User-Name")
		if name == "" {
			name = raw
		}

		user, err := intake.GetOrCreateUser(externalID, name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}
