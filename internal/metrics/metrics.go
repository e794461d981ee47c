// Package metrics holds the client's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_refresh_total",
			Help: "Backend token refresh calls by outcome",
		},
		[]string{"outcome"}, // success/failure/no_token
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_refresh_duration_seconds",
			Help:    "Backend token refresh call duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	refreshCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_refresh_coalesced_total",
			Help: "Refresh requests that joined an in-flight refresh",
		},
	)

	refreshWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_refresh_waiters",
			Help: "Callers currently waiting on a token refresh",
		},
	)

	proactiveChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_proactive_checks_total",
			Help: "Proactive refresh checks by result",
		},
		[]string{"result"}, // skipped/fresh/refreshed/failed
	)

	requestRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_retries_total",
			Help: "Requests re-sent by the client transport",
		},
		[]string{"reason"}, // auth/transient
	)

	sessionExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_expired_total",
			Help: "Sessions torn down after a failed reactive refresh",
		},
	)

	guardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_guard_decisions_total",
			Help: "Route guard decisions",
		},
		[]string{"guard", "decision"}, // decision: allow/redirect
	)
)

// RecordRefresh records a finished backend refresh call
func RecordRefresh(outcome string, duration time.Duration) {
	refreshTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		refreshDuration.Observe(duration.Seconds())
	}
}

// RecordRefreshCoalesced records a caller that shared another caller's refresh
func RecordRefreshCoalesced() {
	refreshCoalescedTotal.Inc()
}

// RecordRefreshWaiting adds delta to the number of callers blocked on a refresh
func RecordRefreshWaiting(delta int) {
	refreshWaiters.Add(float64(delta))
}

// RecordProactiveCheck records one scheduler tick
func RecordProactiveCheck(result string) {
	proactiveChecksTotal.WithLabelValues(result).Inc()
}

// RecordRetry records a re-sent request
func RecordRetry(reason string) {
	requestRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordSessionExpired records a forced logout
func RecordSessionExpired() {
	sessionExpiredTotal.Inc()
}

// RecordGuardDecision records a route guard outcome
func RecordGuardDecision(guard string, allowed bool) {
	decision := "redirect"
	if allowed {
		decision = "allow"
	}
	guardDecisionsTotal.WithLabelValues(guard, decision).Inc()
}
