package handlers

import (
	"net/http"
	"os"

	"shib_mining/internal/http/middleware"
	"shib_mining/internal/logger"
	"shib_mining/internal/service"
	"shib_mining/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades to a websocket and streams the caller's mining state. The
// credential comes from the session cookie or a token query parameter
// (browsers cannot set headers on websocket dials).
func (h *Handler) WS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if v, err := c.Cookie(middleware.AccessTokenCookie); err == nil {
			token = v
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	email, err := service.ParseJWT(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if _, ok := h.Engine.Session(email); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not started"})
		return
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(email, conn, h.Engine)
	go client.Run()
}
