// Package metrics holds the process-wide Prometheus collectors. They are
// registered with the default registry on import and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oilrush_operations_total",
			Help: "Economy operations by name and outcome",
		},
		[]string{"op", "outcome"},
	)
	CommitConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oilrush_commit_conflicts_total",
			Help: "Profile writes retried after a version conflict",
		},
	)
	CaseOpenings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oilrush_case_openings_total",
			Help: "Opened cases by case id and rarity band",
		},
		[]string{"case", "rarity"},
	)
	OfflineBarrels = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oilrush_offline_income_barrels_total",
			Help: "Barrels credited as offline income",
		},
	)
	BoostersPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oilrush_boosters_purge_profiles_total",
			Help: "Profiles touched by the expired booster sweep",
		},
	)
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oilrush_rate_limiter_requests_total",
			Help: "Requests allowed by the rate limiter",
		},
		[]string{"route"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oilrush_rate_limiter_blocked_total",
			Help: "Requests blocked by the rate limiter",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(Operations, CommitConflicts, CaseOpenings, OfflineBarrels, BoostersPurged, RLRequests, RLBlocked)
}

// Outcome labels an operation result for the Operations counter.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
