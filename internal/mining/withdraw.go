package mining

import (
	"context"
	"errors"
	"fmt"

	"shib_mining/internal/domain"

	"github.com/shopspring/decimal"
)

// Withdrawal validation failures, each a distinct user-visible reason.
var (
	ErrMissingFields       = errors.New("amount and wallet address are required")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrBelowMinimum        = errors.New("amount below withdrawal minimum")
	ErrAboveMaximum        = errors.New("amount above withdrawal maximum")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWithdrawalInFlight  = errors.New("another withdrawal is being processed")
)

// ErrBalanceNotDebited wraps a failure of the balance write that follows a
// successful withdrawal insert. The pending record exists but the persisted
// balance was not reduced; the pair has to be reconciled out of band.
var ErrBalanceNotDebited = errors.New("withdrawal recorded but balance update failed")

// Withdraw validates amountInput against the session balance and the
// configured bounds, then records a pending withdrawal and debits the
// balance. Checks run in a fixed order and fail fast; a validation failure
// leaves every piece of state untouched and inserts nothing.
//
// The record insert and the balance write are two separate statements, not
// one transaction. That matches the source design; ErrBalanceNotDebited
// marks the gap when the second write fails.
func (e *Engine) Withdraw(ctx context.Context, email, amountInput, walletAddress string) (*domain.Withdrawal, error) {
	s, ok := e.Session(email)
	if !ok {
		return nil, ErrNoSession
	}

	if amountInput == "" || walletAddress == "" {
		return nil, ErrMissingFields
	}
	amount, err := decimal.NewFromString(amountInput)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(e.cfg.MinWithdrawal) {
		return nil, ErrBelowMinimum
	}
	if amount.GreaterThan(e.cfg.MaxWithdrawal) {
		return nil, ErrAboveMaximum
	}

	s.mu.Lock()
	if s.withdrawing {
		s.mu.Unlock()
		return nil, ErrWithdrawalInFlight
	}
	if amount.GreaterThan(s.balance) {
		s.mu.Unlock()
		return nil, ErrInsufficientBalance
	}
	s.withdrawing = true
	balance := s.balance
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.withdrawing = false
		s.mu.Unlock()
	}()

	w := &domain.Withdrawal{
		Email:         email,
		Amount:        amount,
		Status:        domain.WithdrawalStatusPending,
		WalletAddress: walletAddress,
	}
	if err := e.withdrawals.Create(ctx, w); err != nil {
		withdrawalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	if err := e.accounts.SaveBalance(ctx, email, balance.Sub(amount).Round(2)); err != nil {
		withdrawalsTotal.WithLabelValues("inconsistent").Inc()
		return nil, fmt.Errorf("%w: %v", ErrBalanceNotDebited, err)
	}

	// Deduct from the live balance, not from the value captured before the
	// writes, so ticks accrued while the writes were in flight survive. The
	// persisted row catches up on the next flush.
	s.mu.Lock()
	s.balance = s.balance.Sub(amount)
	s.mu.Unlock()

	withdrawalsTotal.WithLabelValues("ok").Inc()
	return w, nil
}
