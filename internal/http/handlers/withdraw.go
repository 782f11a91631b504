package handlers

import (
	"errors"
	"net/http"

	"shib_mining/internal/logger"
	"shib_mining/internal/mining"

	"github.com/gin-gonic/gin"
)

// Amount arrives as a string so the withdrawal processor owns the full
// validation order, including "parses as a positive number".
type withdrawRequest struct {
	Amount        string `json:"amount"`
	WalletAddress string `json:"wallet_address"`
}

// RequestWithdrawal submits a payout request against the live balance.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req withdrawRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	w, err := h.Engine.Withdraw(c.Request.Context(), email, req.Amount, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, mining.ErrNoSession):
			c.JSON(http.StatusConflict, gin.H{"error": "session not started"})
		case errors.Is(err, mining.ErrMissingFields),
			errors.Is(err, mining.ErrInvalidAmount),
			errors.Is(err, mining.ErrBelowMinimum),
			errors.Is(err, mining.ErrAboveMaximum),
			errors.Is(err, mining.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, mining.ErrWithdrawalInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, mining.ErrBalanceNotDebited):
			// the pending record exists; ops reconciles the balance out of band
			logger.Error("withdrawal balance debit failed", "email", email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process withdrawal"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process withdrawal"})
		}
		return
	}

	// a concurrent logout can remove the session before this lookup; the
	// withdrawal itself already went through
	resp := gin.H{"withdrawal": w}
	if s, ok := h.Engine.Session(email); ok {
		resp["state"] = s.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// MyWithdrawals lists the caller's withdrawal requests, newest first.
func (h *Handler) MyWithdrawals(c *gin.Context) {
	email, ok := getEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	withdrawals, err := h.WithdrawalRepo.GetByEmail(c.Request.Context(), email, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// WithdrawalLimits exposes the min/max bounds for the withdrawal form.
func (h *Handler) WithdrawalLimits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"min_withdrawal": h.Engine.MinWithdrawal(),
		"max_withdrawal": h.Engine.MaxWithdrawal(),
	})
}
