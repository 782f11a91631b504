package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus tracks a payout request. Requests are created as pending;
// every later transition belongs to the back-office review process, not to
// this service.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
)

// Withdrawal is an append-only payout request against an account balance.
type Withdrawal struct {
	ID            int64            `db:"id" json:"id"`
	Email         string           `db:"email" json:"email"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	WalletAddress string           `db:"wallet_address" json:"wallet_address"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
