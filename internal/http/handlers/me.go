package handlers

import (
	"net/http"

	"shib_mining/internal/repository"

	"github.com/gin-gonic/gin"
)

// Me returns the authenticated user and their persisted account row. Note
// the account balance here is the last flushed value; the live one comes
// from the mining state endpoints.
func (h *Handler) Me(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	user, err := repository.NewUserRepository(h.DB).GetByEmail(ctx, email)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	account, err := h.AccountRepo.Get(ctx, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"account": account,
	})
}
