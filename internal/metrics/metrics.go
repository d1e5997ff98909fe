// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected bearer tokens by reason.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_auth_failures_total",
			Help: "Rejected bearer tokens by reason",
		},
		[]string{"reason"},
	)

	// AuthSuccesses counts verified bearer tokens.
	AuthSuccesses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_auth_successes_total",
			Help: "Verified bearer tokens",
		},
	)

	// GuardDecisions counts household guard evaluations (check=member|creator, result=allow|deny|error).
	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_guard_decisions_total",
			Help: "Household membership and creator checks",
		},
		[]string{"check", "result"},
	)

	// InviteRedemptions counts redemption attempts by outcome.
	InviteRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_invite_redemptions_total",
			Help: "Invite redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
