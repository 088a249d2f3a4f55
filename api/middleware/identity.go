package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The authentication gateway terminates the session and forwards the
// verified subject in these headers. Client-supplied identity fields in
// request bodies are never trusted.
const (
	HeaderUserId          = "X-Auth-User-Id"
	HeaderUserEmail       = "X-Auth-User-Email"
	HeaderFirstName       = "X-Auth-User-First-Name"
	HeaderLastName        = "X-Auth-User-Last-Name"
	HeaderProfileImageUrl = "X-Auth-User-Profile-Image"
)

// IdentityMiddleware extracts the verified user identity and rejects
// requests that carry none.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetHeader(HeaderUserId)
		if userId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			c.Abort()
			return
		}

		c.Set("UserId", userId)
		c.Set("UserEmail", c.GetHeader(HeaderUserEmail))
		c.Set("UserFirstName", c.GetHeader(HeaderFirstName))
		c.Set("UserLastName", c.GetHeader(HeaderLastName))
		c.Set("UserProfileImageUrl", c.GetHeader(HeaderProfileImageUrl))
		c.Next()
	}
}
