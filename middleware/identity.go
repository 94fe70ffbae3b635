package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sushicount-api/security"
)

const (
	// RequesterKey holds the resolved requester id in the gin context.
	RequesterKey = "user_id"

	UserIDHeader = "X-User-Id"
)

// Identity resolves the requester from a bearer token, falling back to the X-User-Id header.
// Requests without either pass through anonymously.
func Identity(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := bearerUserID(c.GetHeader("Authorization"), jwtSecret); userID != "" {
			c.Set(RequesterKey, userID)
		} else if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
			c.Set(RequesterKey, userID)
		}
		c.Next()
	}
}

func bearerUserID(header, secret string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || secret == "" {
		return ""
	}
	claims, err := security.ValidateJWT(strings.TrimSpace(token), secret)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// Requester returns the id set by Identity, or "" for anonymous requests.
func Requester(c *gin.Context) string {
	return c.GetString(RequesterKey)
}
