package middleware

import (
	"net/http"
	"strings"

	"shib_mining/internal/service"

	"github.com/gin-gonic/gin"
)

// AccessTokenCookie carries the session credential. Path /, max-age 86400,
// cleared with max-age=0 on logout.
const AccessTokenCookie = "access-token"

// JWT guards API routes. The credential is read from the access-token
// cookie, falling back to an Authorization bearer header; the subject email
// is stored in the gin context under "email".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if v, err := c.Cookie(AccessTokenCookie); err == nil {
			token = v
		}
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		email, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("email", email)
		c.Next()
	}
}
