package middleware

import (
	"net/http"
	"strings"

	"shib_mining/internal/service"

	"github.com/gin-gonic/gin"
)

// PageGuard applies the browser routing rules: unauthenticated visits to
// /dashboard bounce to /, and authenticated visits to the login page bounce
// to /dashboard. A cookie that fails validation counts as unauthenticated.
func PageGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		authed := false
		if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
			if _, err := service.ParseJWT(v); err == nil {
				authed = true
			}
		}

		if strings.HasPrefix(path, "/dashboard") && !authed {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		if path == "/" && authed {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}

		c.Next()
	}
}
