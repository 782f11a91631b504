package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a subscription tier. The tier decides how fast a balance accrues.
type Plan string

const (
	PlanStart Plan = "start"
	PlanVIP1  Plan = "vip+"
	PlanVIP2  Plan = "vip++"
	PlanVIP3  Plan = "vip+++"
)

// Account is a user's persisted mining balance, keyed by email. The row is
// created lazily on first dashboard load (or at registration) and may lag
// the in-memory balance by up to one flush interval.
type Account struct {
	Email     string          `db:"email" json:"email"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Plan      Plan            `db:"plan" json:"plan"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
