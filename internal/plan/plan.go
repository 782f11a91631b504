package plan

import (
	"shib_mining/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultRate is used for any plan value the table does not know about
// (legacy rows, manual edits). A lookup never fails.
var DefaultRate = decimal.RequireFromString("0.33")

// Per-second accrual rates in SHIB.
var rates = map[domain.Plan]decimal.Decimal{
	domain.PlanStart: decimal.RequireFromString("0.89"),
	domain.PlanVIP1:  decimal.RequireFromString("8.67"),
	domain.PlanVIP2:  decimal.RequireFromString("19.58"),
	domain.PlanVIP3:  decimal.RequireFromString("28.41"),
}

var names = map[domain.Plan]string{
	domain.PlanStart: "Start",
	domain.PlanVIP1:  "VIP+",
	domain.PlanVIP2:  "VIP++",
	domain.PlanVIP3:  "VIP+++",
}

// Rate returns the accrual rate for a plan, falling back to DefaultRate for
// unrecognized plans.
func Rate(p domain.Plan) decimal.Decimal {
	if r, ok := rates[p]; ok {
		return r
	}
	return DefaultRate
}

// Known reports whether p is one of the sellable tiers.
func Known(p domain.Plan) bool {
	_, ok := rates[p]
	return ok
}

// Info describes one tier for the dashboard plan grid.
type Info struct {
	Plan        domain.Plan     `json:"plan"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	HourlyYield decimal.Decimal `json:"hourly_yield"`
}

// All returns the catalog ordered from cheapest to most expensive tier.
func All() []Info {
	order := []domain.Plan{domain.PlanStart, domain.PlanVIP1, domain.PlanVIP2, domain.PlanVIP3}
	infos := make([]Info, 0, len(order))
	for _, p := range order {
		r := rates[p]
		infos = append(infos, Info{
			Plan:        p,
			Name:        names[p],
			Rate:        r,
			HourlyYield: r.Mul(decimal.NewFromInt(3600)),
		})
	}
	return infos
}
