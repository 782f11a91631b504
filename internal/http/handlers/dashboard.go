package handlers

import (
	"errors"
	"net/http"

	"shib_mining/internal/domain"
	"shib_mining/internal/mining"
	"shib_mining/internal/plan"

	"github.com/gin-gonic/gin"
)

// Dashboard loads (or lazily creates) the caller's account, registers the
// live mining session and returns the initial dashboard state.
func (h *Handler) Dashboard(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	s, err := h.Engine.StartSession(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": s.Snapshot(),
		"plans": plan.All(),
		"limits": gin.H{
			"min_withdrawal": h.Engine.MinWithdrawal(),
			"max_withdrawal": h.Engine.MaxWithdrawal(),
		},
	})
}

// ToggleMining flips the accrual loop on or off. Requires a session started
// via Dashboard first.
func (h *Handler) ToggleMining(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	activeNow, err := h.Engine.ToggleMining(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, mining.ErrNoSession) {
			c.JSON(http.StatusConflict, gin.H{"error": "session not started"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle mining"})
		return
	}

	// the session can disappear between the toggle and this lookup when a
	// logout races in from another tab
	s, ok := h.Engine.Session(email)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"mining": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mining": activeNow,
		"state":  s.Snapshot(),
	})
}

// MiningState returns the live session snapshot.
func (h *Handler) MiningState(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	s, ok := h.Engine.Session(email)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not started"})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

// Plans returns the plan catalog.
func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": plan.All()})
}

type changePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// ChangePlan switches the caller to a different tier. The new rate applies
// from the next accrual tick, never retroactively.
func (h *Handler) ChangePlan(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req changePlanRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	p := domain.Plan(req.Plan)
	if !plan.Known(p) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}

	if err := h.Engine.ChangePlan(c.Request.Context(), email, p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": p, "rate": plan.Rate(p)})
}
