package mining

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mining_ticks_total",
			Help: "Accrual ticks applied across all sessions",
		},
	)
	flushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mining_flush_total",
			Help: "Balance flushes by outcome",
		},
		[]string{"outcome"},
	)
	withdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mining_withdrawals_total",
			Help: "Withdrawal submissions by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, flushTotal, withdrawalsTotal)
}
