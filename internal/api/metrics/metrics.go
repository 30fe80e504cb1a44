// Package metrics defines and registers all custom Prometheus metrics for the
// tracker API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login outcomes.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "duplicate", "invalid_credentials", "invalid_payload" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// TokenVerificationsTotal counts bearer checks on protected routes.
// Label:
//   - result: "ok", or the rejection reason ("missing", "malformed", "signature", "expired", "claims")
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts tokens minted at login.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued.",
	},
)

// ── Data metrics ──────────────────────────────────────────────────────────────

// OwnershipDenialsTotal counts requests that touched rows outside the
// caller's ownership scope, or that do not exist at all.
// Labels:
//   - kind: "not_found" or "invalid_reference"
var OwnershipDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ownership_denials_total",
		Help:      "Total number of not-found and invalid-reference responses on scoped data.",
	},
	[]string{"kind"},
)

// IdempotencyKeysTotal counts create requests carrying an Idempotency-Key.
// Label:
//   - resource: "project" or "task"
var IdempotencyKeysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_keys_total",
		Help:      "Total number of create requests that carried an Idempotency-Key header.",
	},
	[]string{"resource"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures handler latency.
// Labels:
//   - method: HTTP method
//   - route: the matched route template (e.g. "/api/projects/:id")
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
